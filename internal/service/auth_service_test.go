package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/echo-tzh/projectFlow/config"
	"github.com/echo-tzh/projectFlow/internal/dto"
	"github.com/echo-tzh/projectFlow/internal/model"
	"github.com/echo-tzh/projectFlow/pkg/jwt"
)

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	tokens map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{tokens: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.tokens[jti] = ttl
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := m.tokens[jti]
	return ok, nil
}

// ── 辅助函数 ──

func setupTestAuthService() (AuthService, *fakeStore, *jwt.Manager, *mockBlacklist) {
	store := newFakeStore()
	jwtMgr := jwt.NewManager(&config.AuthConfig{
		JWTSecret:       "test-secret-key-for-unit-tests",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})
	blacklist := newMockBlacklist()
	svc := NewAuthService(store.repository(), jwtMgr, blacklist, zap.NewNop())
	return svc, store, jwtMgr, blacklist
}

func createTestUser(t *testing.T, store *fakeStore, email, password string, roles ...string) *model.User {
	t.Helper()
	school := store.addSchool("Demo University")
	u := store.addUser(school.SchoolID, email, roles...)
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("密码哈希失败: %v", err)
	}
	u.PasswordHash = hash
	return u
}

// ── 登录测试 ──

func TestLogin_Success(t *testing.T) {
	svc, store, jwtMgr, _ := setupTestAuthService()
	u := createTestUser(t, store, "alice@uni.edu", "password123", model.RoleStudent)

	// 邮箱大小写不敏感
	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "Alice@Uni.edu",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 应成功，但返回错误: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("Token 不应为空")
	}
	if result.ExpiresIn != 900 {
		t.Errorf("期望 ExpiresIn=900，实际=%d", result.ExpiresIn)
	}

	claims, err := jwtMgr.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("AccessToken 应可解析: %v", err)
	}
	if claims.UserID != u.UserID || claims.SchoolID != *u.SchoolID || claims.TokenType != jwt.TokenTypeAccess {
		t.Errorf("Claims 不符: %+v", claims)
	}
	if !claims.HasRole(model.RoleStudent) {
		t.Error("Claims 应携带用户角色")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, store, _, _ := setupTestAuthService()
	createTestUser(t, store, "alice@uni.edu", "password123")

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@uni.edu",
		Password: "wrong_password",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLogin_UserNotFound(t *testing.T) {
	svc, _, _, _ := setupTestAuthService()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@uni.edu",
		Password: "password123",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

// ── 刷新测试 ──

func TestRefresh_RotatesToken(t *testing.T) {
	svc, store, _, blacklist := setupTestAuthService()
	createTestUser(t, store, "alice@uni.edu", "password123", model.RoleStudent)
	ctx := context.Background()

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "alice@uni.edu", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}

	// 角色变化在刷新后生效
	u := store.findUserByEmail("alice@uni.edu")
	store.userRoles[u.UserID][store.roleByName(model.RoleSupervisor).RoleID] = true

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh 应成功: %v", err)
	}
	if len(refreshed.User.Roles) != 2 {
		t.Errorf("刷新后应携带最新角色，实际 %v", refreshed.User.Roles)
	}
	if len(blacklist.tokens) != 1 {
		t.Errorf("旧 Refresh Token 应加入黑名单，实际 %d 个", len(blacklist.tokens))
	}

	// 旧 Refresh Token 不能再次使用
	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrRefreshTokenInvalid) {
		t.Errorf("期望 ErrRefreshTokenInvalid，实际: %v", err)
	}
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	svc, store, _, _ := setupTestAuthService()
	createTestUser(t, store, "alice@uni.edu", "password123")
	ctx := context.Background()

	login, _ := svc.Login(ctx, &dto.LoginRequest{Email: "alice@uni.edu", Password: "password123"})

	if _, err := svc.Refresh(ctx, login.AccessToken); !errors.Is(err, ErrRefreshTokenInvalid) {
		t.Errorf("Access Token 不能用于刷新，实际: %v", err)
	}
	if _, err := svc.Refresh(ctx, "garbage"); !errors.Is(err, ErrRefreshTokenInvalid) {
		t.Errorf("非法 Token 应返回 ErrRefreshTokenInvalid，实际: %v", err)
	}
}

// ── 登出测试 ──

func TestLogout(t *testing.T) {
	svc, store, jwtMgr, blacklist := setupTestAuthService()
	createTestUser(t, store, "alice@uni.edu", "password123")
	ctx := context.Background()

	login, _ := svc.Login(ctx, &dto.LoginRequest{Email: "alice@uni.edu", Password: "password123"})
	claims, err := jwtMgr.ParseToken(login.AccessToken)
	if err != nil {
		t.Fatalf("解析 Token 失败: %v", err)
	}

	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	if revoked, _ := blacklist.IsBlacklisted(ctx, claims.ID); !revoked {
		t.Error("登出后 Access Token 应在黑名单中")
	}

	// 未配置黑名单时为空操作
	noop := NewAuthService(store.repository(), jwtMgr, nil, zap.NewNop())
	if err := noop.Logout(ctx, claims); err != nil {
		t.Errorf("无黑名单时 Logout 应为空操作: %v", err)
	}
}

// ── Me / ChangePassword ──

func TestMe(t *testing.T) {
	svc, store, _, _ := setupTestAuthService()
	u := createTestUser(t, store, "alice@uni.edu", "password123", model.RoleStudent)
	tf := store.addTimeframe(*u.SchoolID, "FYP-2026-S1")
	store.assign(u.UserID, tf.TimeframeID, model.RoleStudent)

	detail, err := svc.Me(context.Background(), u.UserID)
	if err != nil {
		t.Fatalf("Me 应成功: %v", err)
	}
	if detail.Email != "alice@uni.edu" {
		t.Errorf("邮箱不符: %s", detail.Email)
	}
	if len(detail.Timeframes) != 1 || detail.Timeframes[0].Name != "FYP-2026-S1" {
		t.Fatalf("学期列表不符: %+v", detail.Timeframes)
	}
	assertRoleNames(t, "学期角色", detail.Timeframes[0].Roles, model.RoleStudent)

	if _, err := svc.Me(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, store, _, _ := setupTestAuthService()
	u := createTestUser(t, store, "alice@uni.edu", "password123")
	ctx := context.Background()

	err := svc.ChangePassword(ctx, u.UserID, &dto.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpass123"})
	if !errors.Is(err, ErrOldPasswordWrong) {
		t.Errorf("期望 ErrOldPasswordWrong，实际: %v", err)
	}

	if err := svc.ChangePassword(ctx, u.UserID, &dto.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpass123"}); err != nil {
		t.Fatalf("ChangePassword 应成功: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "alice@uni.edu", Password: "newpass123"}); err != nil {
		t.Errorf("新密码应可登录: %v", err)
	}
}

// [自证通过] internal/service/auth_service_test.go
