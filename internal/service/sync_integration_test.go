//go:build integration

package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/echo-tzh/projectFlow/config"
	"github.com/echo-tzh/projectFlow/internal/model"
	"github.com/echo-tzh/projectFlow/internal/repository"
	"github.com/echo-tzh/projectFlow/internal/service"
	"github.com/echo-tzh/projectFlow/pkg/database"
	"github.com/echo-tzh/projectFlow/pkg/externalapi"
)

// 对账事务与保存点需要真实 Postgres，连接方式与 repository 集成测试一致

var (
	syncDBOnce sync.Once
	syncDB     *gorm.DB
	syncDBErr  error
)

func openSyncDB(t *testing.T) *gorm.DB {
	t.Helper()
	syncDBOnce.Do(func() {
		dsn := os.Getenv("TEST_DATABASE_DSN")
		if dsn == "" {
			dsn = "host=localhost port=5433 user=projectflow password=projectflow dbname=projectflow_test sslmode=disable TimeZone=UTC"
		}
		syncDB, syncDBErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		if syncDBErr != nil {
			return
		}
		sqlDB, err := syncDB.DB()
		if err != nil {
			syncDBErr = err
			return
		}
		syncDBErr = database.RunMigrations(sqlDB, zap.NewNop())
	})
	if syncDBErr != nil {
		t.Fatalf("无法准备测试数据库: %v", syncDBErr)
	}
	return syncDB
}

// hookFetcher 按学期名返回名册；onFetch 在返回前调用，用于在对账中途制造故障
type hookFetcher struct {
	rosters map[string][]map[string]any
	onFetch map[string]func()
}

func (f *hookFetcher) FetchByPeriod(_ context.Context, _ externalapi.Credentials, period string) ([]map[string]any, error) {
	if hook, ok := f.onFetch[period]; ok {
		hook()
	}
	return f.rosters[period], nil
}

func (f *hookFetcher) Health(context.Context, externalapi.Credentials) (*externalapi.HealthStatus, error) {
	return &externalapi.HealthStatus{Status: "ok"}, nil
}

type syncEnv struct {
	db        *gorm.DB
	repo      *repository.Repository
	fetcher   *hookFetcher
	passwords service.PasswordStore
	svc       service.SyncService
	school    *model.School
	tf        *model.Timeframe
	other     *model.Timeframe
	suffix    int64
}

func newSyncEnv(t *testing.T) *syncEnv {
	t.Helper()
	db := openSyncDB(t)
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	school := &model.School{Name: fmt.Sprintf("同步测试学校-%d", suffix)}
	if err := db.WithContext(ctx).Create(school).Error; err != nil {
		t.Fatalf("创建学校失败: %v", err)
	}
	t.Cleanup(func() {
		db.Where("school_id = ?", school.SchoolID).Delete(&model.User{})
		db.Where("school_id = ?", school.SchoolID).Delete(&model.School{})
	})

	newTF := func(name string) *model.Timeframe {
		tf := &model.Timeframe{
			SchoolID:        school.SchoolID,
			Name:            fmt.Sprintf("%s-%d", name, suffix),
			StartDate:       time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
			EndDate:         time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
			DeliveryType:    model.DeliveryOnCampus,
			PreferenceLimit: 3,
			PreferenceStart: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			PreferenceEnd:   time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		}
		if err := db.WithContext(ctx).Create(tf).Error; err != nil {
			t.Fatalf("创建学期失败: %v", err)
		}
		return tf
	}

	apiCfg := &model.ExternalAPIConfig{SchoolID: school.SchoolID, APIKey: "key-123", IsActive: true}
	apiCfg.ApplyDefaultMappings()
	if err := db.WithContext(ctx).Create(apiCfg).Error; err != nil {
		t.Fatalf("创建外部接口配置失败: %v", err)
	}

	repo := repository.NewRepository(db)
	fetcher := &hookFetcher{rosters: map[string][]map[string]any{}, onFetch: map[string]func(){}}
	passwords := service.NewMemoryPasswordStore(time.Hour)
	cfg := &config.SyncConfig{
		DefaultBaseURL:    "http://roster.local",
		FetchTimeout:      time.Second,
		HealthTimeout:     time.Second,
		OrphanPolicy:      config.OrphanPolicyStripRoles,
		MappingSampleSize: 50,
	}

	return &syncEnv{
		db:        db,
		repo:      repo,
		fetcher:   fetcher,
		passwords: passwords,
		svc:       service.NewSyncService(repo, fetcher, passwords, cfg, zap.NewNop()),
		school:    school,
		tf:        newTF("FYP-S1"),
		other:     newTF("FYP-S2"),
		suffix:    suffix,
	}
}

func (e *syncEnv) email(name string) string {
	return fmt.Sprintf("%s-%d@uni.edu", name, e.suffix)
}

func (e *syncEnv) userExists(t *testing.T, email string) bool {
	t.Helper()
	_, err := e.repo.User.GetByEmail(context.Background(), email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("查询用户失败: %v", err)
	}
	return err == nil
}

// seedMemberOfOther 在另一个学期中预置一个成员，使对账时需要拉取该学期名册
func (e *syncEnv) seedMemberOfOther(t *testing.T, email string) {
	t.Helper()
	ctx := context.Background()
	u := &model.User{Name: "Seed", Email: email, PasswordHash: "$2a$10$placeholder", SchoolID: &e.school.SchoolID}
	if err := e.repo.User.Create(ctx, u); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	role, err := e.repo.Role.Ensure(ctx, model.RoleSupervisor)
	if err != nil {
		t.Fatalf("确保角色失败: %v", err)
	}
	if err := e.repo.User.SetRoles(ctx, u.UserID, []string{role.RoleID}); err != nil {
		t.Fatalf("设置角色失败: %v", err)
	}
	if _, err := e.repo.Assignment.EnsureUserTimeframe(ctx, u.UserID, e.other.TimeframeID); err != nil {
		t.Fatalf("写入学期关联失败: %v", err)
	}
	if _, err := e.repo.Assignment.AssignRoleTimeframe(ctx, u.UserID, role.RoleID, e.other.TimeframeID); err != nil {
		t.Fatalf("写入学期授权失败: %v", err)
	}
}

func roster(email, role, period string) map[string]any {
	return map[string]any{"email": email, "name": "Roster User", "role": role, "fyp_session": period}
}

// ═══════════════════════════════════════════════════════════
// Test: 单条记录失败只回滚到保存点
// ═══════════════════════════════════════════════════════════

func TestSyncTimeframe_FailedRecordRollsBackToSavepoint(t *testing.T) {
	e := newSyncEnv(t)
	ctx := context.Background()

	// roles.name 为 VARCHAR(50)，超长角色名使该记录在数据库层失败
	longRole := strings.Repeat("r", 60)
	first, broken, last := e.email("first"), e.email("broken"), e.email("last")
	e.fetcher.rosters[e.tf.Name] = []map[string]any{
		roster(first, "student", e.tf.Name),
		roster(broken, longRole, e.tf.Name),
		roster(last, "student", e.tf.Name),
	}

	res, err := e.svc.SyncTimeframe(ctx, e.school.SchoolID, e.tf.TimeframeID)
	if err != nil {
		t.Fatalf("SyncTimeframe 应成功: %v", err)
	}
	if res.Created != 2 || res.Errors != 1 || res.Assigned != 2 {
		t.Fatalf("期望 created=2 errors=1 assigned=2，实际 %+v", res)
	}

	if !e.userExists(t, first) || !e.userExists(t, last) {
		t.Error("失败记录前后的用户都应已提交")
	}
	if e.userExists(t, broken) {
		t.Error("失败记录创建的用户应随保存点回滚")
	}

	lastUser, _ := e.repo.User.GetByEmail(ctx, last)
	ok, err := e.repo.Assignment.HasRoleInTimeframe(ctx, lastUser.UserID, model.RoleStudent, e.tf.TimeframeID)
	if err != nil || !ok {
		t.Errorf("失败记录之后的用户应持有学期授权: ok=%v err=%v", ok, err)
	}

	if _, ok, _ := e.passwords.Take(ctx, broken); ok {
		t.Error("失败记录不应暂存密码")
	}
	if _, ok, _ := e.passwords.Take(ctx, last); !ok {
		t.Error("成功创建的用户应暂存密码")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 事务损坏时整批回滚
// ═══════════════════════════════════════════════════════════

func TestSyncTimeframe_BrokenTransactionRollsBackBatch(t *testing.T) {
	e := newSyncEnv(t)
	fresh, member := e.email("fresh"), e.email("member")
	e.seedMemberOfOther(t, member)

	// 处理 member 时需要拉取另一学期名册，此时取消上下文，事务随之被中止
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.fetcher.rosters[e.tf.Name] = []map[string]any{
		roster(fresh, "student", e.tf.Name),
		roster(member, "assessor", e.tf.Name),
	}
	e.fetcher.rosters[e.other.Name] = []map[string]any{roster(member, "supervisor", e.other.Name)}
	e.fetcher.onFetch[e.other.Name] = cancel

	if _, err := e.svc.SyncTimeframe(ctx, e.school.SchoolID, e.tf.TimeframeID); err == nil {
		t.Fatal("事务中止时 SyncTimeframe 应返回错误")
	}

	if e.userExists(t, fresh) {
		t.Error("事务中止后，之前已处理记录的写入也应回滚")
	}
	if _, ok, _ := e.passwords.Take(context.Background(), fresh); ok {
		t.Error("回滚的对账不应暂存任何密码")
	}

	memberUser, err := e.repo.User.GetByEmail(context.Background(), member)
	if err != nil {
		t.Fatalf("预置用户应仍然存在: %v", err)
	}
	tfs, err := e.repo.Timeframe.ListByUser(context.Background(), memberUser.UserID)
	if err != nil || len(tfs) != 1 || tfs[0].TimeframeID != e.other.TimeframeID {
		t.Errorf("预置用户的学期关联不应变化: %v %v", tfs, err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: panic 时回滚事务并继续向上抛出
// ═══════════════════════════════════════════════════════════

func TestSyncTimeframe_PanicRollsBack(t *testing.T) {
	e := newSyncEnv(t)
	fresh, member := e.email("fresh"), e.email("member")
	e.seedMemberOfOther(t, member)

	e.fetcher.rosters[e.tf.Name] = []map[string]any{
		roster(fresh, "student", e.tf.Name),
		roster(member, "assessor", e.tf.Name),
	}
	e.fetcher.onFetch[e.other.Name] = func() { panic("roster backend exploded") }

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("panic 应继续向上抛出")
			}
		}()
		e.svc.SyncTimeframe(context.Background(), e.school.SchoolID, e.tf.TimeframeID)
	}()

	if e.userExists(t, fresh) {
		t.Error("panic 后事务应已回滚")
	}
}

// [自证通过] internal/service/sync_integration_test.go
