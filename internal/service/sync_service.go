package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/echo-tzh/projectFlow/config"
	"github.com/echo-tzh/projectFlow/internal/dto"
	"github.com/echo-tzh/projectFlow/internal/model"
	"github.com/echo-tzh/projectFlow/internal/repository"
	"github.com/echo-tzh/projectFlow/pkg/externalapi"
)

var (
	ErrExternalFetchFailed = errors.New("拉取外部名册失败")
	errSavepointBroken     = errors.New("回滚保存点失败")
)

const recordSavepoint = "sync_record"

// RosterFetcher 外部名册数据源
type RosterFetcher interface {
	FetchByPeriod(ctx context.Context, creds externalapi.Credentials, period string) ([]map[string]any, error)
	Health(ctx context.Context, creds externalapi.Credentials) (*externalapi.HealthStatus, error)
}

// SyncService 外部名册同步业务接口
type SyncService interface {
	// SyncTimeframe 对一个学期执行一次完整的名册对账
	SyncTimeframe(ctx context.Context, schoolID, timeframeID string) (*dto.SyncResult, error)
	// TestConnection 探测外部接口，网络问题以 success=false 返回而不是错误
	TestConnection(ctx context.Context, schoolID string) (*dto.ConnectionTestResult, error)
	// ValidateMapping 拉取名册并统计各映射字段的覆盖率
	ValidateMapping(ctx context.Context, schoolID, period string) (*dto.MappingValidationResult, error)
}

type syncService struct {
	repo      *repository.Repository
	fetcher   RosterFetcher
	passwords PasswordStore
	cfg       *config.SyncConfig
	logger    *zap.Logger
}

// NewSyncService 创建 SyncService 实例
func NewSyncService(
	repo *repository.Repository,
	fetcher RosterFetcher,
	passwords PasswordStore,
	cfg *config.SyncConfig,
	logger *zap.Logger,
) SyncService {
	return &syncService{
		repo:      repo,
		fetcher:   fetcher,
		passwords: passwords,
		cfg:       cfg,
		logger:    logger,
	}
}

// syncPass 单次对账的上下文；名册按学期名缓存，整个对账过程中每个学期最多拉取一次
type syncPass struct {
	schoolID  string
	timeframe *model.Timeframe
	creds     externalapi.Credentials
	mapping   FieldMapping
	rosters   map[string][]map[string]any
	fetchErrs map[string]error
	staged    map[string]string // 新用户邮箱 → 临时密码，事务提交后写入暂存
}

// recordOutcome 单条名册记录的处理结果
type recordOutcome struct {
	created  bool
	updated  bool
	assigned bool
	roles    int
	password string
}

// ────────────────────── SyncTimeframe ──────────────────────

func (s *syncService) SyncTimeframe(ctx context.Context, schoolID, timeframeID string) (*dto.SyncResult, error) {
	tf, err := s.repo.Timeframe.GetByID(ctx, timeframeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeframeNotFound
		}
		s.logger.Error("查询学期失败", zap.String("timeframe_id", timeframeID), zap.Error(err))
		return nil, err
	}
	if tf.SchoolID != schoolID {
		return nil, ErrTimeframeNotFound
	}

	creds, mapping, err := s.loadSource(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	pass := &syncPass{
		schoolID:  schoolID,
		timeframe: tf,
		creds:     creds,
		mapping:   mapping,
		rosters:   make(map[string][]map[string]any),
		fetchErrs: make(map[string]error),
		staged:    make(map[string]string),
	}

	// 1. 拉取本学期名册；失败则中止，不做任何数据库写入
	raw, err := s.roster(ctx, pass, tf.Name)
	if err != nil {
		s.logger.Error("拉取外部名册失败，同步中止",
			zap.String("timeframe", tf.Name), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExternalFetchFailed, err)
	}

	result := &dto.SyncResult{}

	// 2. 字段映射 + 按邮箱合并
	records, invalid := ExtractRecords(raw, mapping)
	for _, e := range invalid {
		result.Errors++
		s.logger.Warn("名册记录校验失败，已跳过", zap.String("timeframe", tf.Name), zap.Error(e))
	}
	records = ConsolidateRecords(records)

	external := make(map[string]bool, len(records))
	for _, rec := range records {
		external[rec.Email] = true
	}

	// 3. 当前绑定到本学期的邮箱
	current, err := s.repo.User.ListEmailsByTimeframe(ctx, schoolID, tf.TimeframeID)
	if err != nil {
		s.logger.Error("查询学期成员失败", zap.String("timeframe_id", tf.TimeframeID), zap.Error(err))
		return nil, err
	}
	sort.Strings(current)

	// 4. 整个对账在一个事务内完成，单条记录失败只回滚到其保存点
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	// 4a. 先处理名册中的全部用户，再处理移除，避免同时存在于两侧的用户被误删
	for _, rec := range records {
		var out recordOutcome
		err := withSavepoint(tx, recordSavepoint, func() error {
			var err error
			out, err = s.upsertAndAssign(ctx, txRepo, pass, rec)
			return err
		})
		if errors.Is(err, errSavepointBroken) {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("同步事务损坏，已回滚", zap.Error(err))
			return nil, err
		}
		if err != nil {
			result.Errors++
			s.logger.Warn("同步名册记录失败", zap.String("email", rec.Email), zap.Error(err))
			continue
		}

		if out.created {
			result.Created++
			pass.staged[rec.Email] = out.password
		}
		if out.updated {
			result.Updated++
		}
		if out.assigned {
			result.Assigned++
		}
		result.TotalRolesProcessed += out.roles
	}

	// 4b. 本地存在但名册中已不存在的用户
	for _, email := range current {
		if external[email] {
			continue
		}
		err := withSavepoint(tx, recordSavepoint, func() error {
			return s.removeFromTimeframe(ctx, txRepo, pass, email)
		})
		if errors.Is(err, errSavepointBroken) {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("同步事务损坏，已回滚", zap.Error(err))
			return nil, err
		}
		if err != nil {
			result.Errors++
			s.logger.Warn("移除学期成员失败", zap.String("email", email), zap.Error(err))
			continue
		}
		result.Removed++
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交同步事务失败", zap.Error(err))
			return nil, err
		}
	}

	// 5. 提交成功后暂存新用户的临时密码
	for email, pwd := range pass.staged {
		if err := s.passwords.Stage(ctx, email, pwd); err != nil {
			s.logger.Warn("暂存临时密码失败", zap.String("email", email), zap.Error(err))
		}
	}

	result.Success = true
	result.Message = fmt.Sprintf("学期 %s 同步完成：新建 %d，更新 %d，分配 %d，移除 %d，错误 %d",
		tf.Name, result.Created, result.Updated, result.Assigned, result.Removed, result.Errors)

	s.logger.Info("外部名册同步完成",
		zap.String("school_id", schoolID),
		zap.String("timeframe", tf.Name),
		zap.Int("external", len(records)),
		zap.Int("current", len(current)),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("assigned", result.Assigned),
		zap.Int("removed", result.Removed),
		zap.Int("errors", result.Errors),
		zap.Int("roles_processed", result.TotalRolesProcessed),
	)

	return result, nil
}

// upsertAndAssign 按邮箱创建或更新用户，并写入本学期的授权行
func (s *syncService) upsertAndAssign(ctx context.Context, repo *repository.Repository, pass *syncPass, rec RosterRecord) (recordOutcome, error) {
	out := recordOutcome{roles: len(rec.Roles)}
	tfID := pass.timeframe.TimeframeID

	user, err := repo.User.GetByEmail(ctx, rec.Email)
	switch {
	case err == nil:
		profileChanged := updateProfile(user, rec, pass.schoolID)
		if profileChanged {
			if err := repo.User.Update(ctx, user); err != nil {
				return out, fmt.Errorf("更新用户资料失败: %w", err)
			}
		}

		// 全局角色 = 其他学期名册要求的角色 ∪ 本学期角色 ∪ 已持有的管理类角色
		required, err := s.rolesFromOtherTimeframes(ctx, repo, pass, user)
		if err != nil {
			return out, err
		}
		roleSet := unionRoles(unionRoles(required, rec.Roles), adminRoleNames(user))
		rolesChanged, err := applyGlobalRoles(ctx, repo, user, roleSet)
		if err != nil {
			return out, err
		}
		out.updated = profileChanged || rolesChanged

	case errors.Is(err, gorm.ErrRecordNotFound):
		var password string
		user, password, err = createRosterUser(ctx, repo, rec, pass.schoolID)
		if err != nil {
			return out, err
		}
		if _, err := applyGlobalRoles(ctx, repo, user, rec.Roles); err != nil {
			return out, err
		}
		out.created = true
		out.password = password

	default:
		return out, fmt.Errorf("查询用户失败: %w", err)
	}

	roles, err := ensureRoles(ctx, repo, rec.Roles)
	if err != nil {
		return out, err
	}

	if !out.created {
		// 本学期中已不再持有的角色
		keep := make([]string, 0, len(roles))
		for _, r := range roles {
			keep = append(keep, r.RoleID)
		}
		pruned, err := repo.Assignment.DeleteRoleTimeframesExcept(ctx, user.UserID, tfID, keep)
		if err != nil {
			return out, fmt.Errorf("清理过期授权失败: %w", err)
		}
		if pruned > 0 {
			out.updated = true
		}
	}

	out.assigned, err = assignTimeframeRoles(ctx, repo, user.UserID, tfID, roles)
	if err != nil {
		return out, err
	}
	return out, nil
}

// rolesFromOtherTimeframes 用户其他学期的名册所要求的角色
// 某学期名册拉取失败时以本地三元授权行代替
func (s *syncService) rolesFromOtherTimeframes(ctx context.Context, repo *repository.Repository, pass *syncPass, user *model.User) ([]string, error) {
	tfs, err := repo.Timeframe.ListByUser(ctx, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("查询用户学期失败: %w", err)
	}

	var roles []string
	for _, other := range tfs {
		if other.TimeframeID == pass.timeframe.TimeframeID {
			continue
		}
		raw, err := s.roster(ctx, pass, other.Name)
		if err != nil {
			local, err := repo.Assignment.ListRoleNamesInTimeframe(ctx, user.UserID, other.TimeframeID)
			if err != nil {
				return nil, fmt.Errorf("查询本地授权失败: %w", err)
			}
			roles = unionRoles(roles, withoutAdministrativeRoles(local))
			continue
		}
		roles = unionRoles(roles, RolesForEmail(raw, pass.mapping, user.Email))
	}
	return roles, nil
}

// removeFromTimeframe 解除用户与本学期的关联并重新计算其全局角色
func (s *syncService) removeFromTimeframe(ctx context.Context, repo *repository.Repository, pass *syncPass, email string) error {
	tfID := pass.timeframe.TimeframeID

	user, err := repo.User.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("查询用户失败: %w", err)
	}

	if err := repo.Assignment.RemoveUserTimeframe(ctx, user.UserID, tfID); err != nil {
		return fmt.Errorf("解除学期关联失败: %w", err)
	}
	if err := repo.Assignment.DeleteRoleTimeframes(ctx, user.UserID, tfID); err != nil {
		return fmt.Errorf("删除学期授权失败: %w", err)
	}

	remaining, err := repo.Timeframe.ListByUser(ctx, user.UserID)
	if err != nil {
		return fmt.Errorf("查询剩余学期失败: %w", err)
	}

	admin := adminRoleNames(user)
	if len(remaining) == 0 {
		if s.cfg.OrphanPolicy == config.OrphanPolicyDeleteUser && len(admin) == 0 {
			if err := repo.User.Delete(ctx, user.UserID); err != nil {
				return fmt.Errorf("删除用户失败: %w", err)
			}
			s.logger.Info("用户已无任何学期，按策略删除", zap.String("email", email))
			return nil
		}
		_, err := applyGlobalRoles(ctx, repo, user, admin)
		return err
	}

	// 只有全部剩余学期的名册都可用时才重新计算角色，否则保留现有角色
	var required []string
	for _, other := range remaining {
		raw, err := s.roster(ctx, pass, other.Name)
		if err != nil {
			s.logger.Info("剩余学期名册不可用，跳过角色清理",
				zap.String("email", email), zap.String("timeframe", other.Name))
			return nil
		}
		required = unionRoles(required, RolesForEmail(raw, pass.mapping, email))
	}

	_, err = applyGlobalRoles(ctx, repo, user, unionRoles(required, admin))
	return err
}

// ────────────────────── TestConnection ──────────────────────

func (s *syncService) TestConnection(ctx context.Context, schoolID string) (*dto.ConnectionTestResult, error) {
	creds, _, err := s.loadSource(ctx, schoolID)
	if errors.Is(err, ErrExternalAPINotConfigured) {
		return &dto.ConnectionTestResult{Success: false, Message: "该学校尚未配置外部接口"}, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.fetcher.Health(ctx, creds); err != nil {
		s.logger.Info("外部接口连通性探测失败", zap.String("school_id", schoolID), zap.Error(err))
		return &dto.ConnectionTestResult{Success: false, Message: "连接失败: " + err.Error()}, nil
	}
	return &dto.ConnectionTestResult{Success: true, Message: "连接成功"}, nil
}

// ────────────────────── ValidateMapping ──────────────────────

func (s *syncService) ValidateMapping(ctx context.Context, schoolID, period string) (*dto.MappingValidationResult, error) {
	creds, mapping, err := s.loadSource(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	raw, err := s.fetcher.FetchByPeriod(ctx, creds, period)
	if err != nil {
		s.logger.Warn("校验字段映射时拉取名册失败", zap.String("period", period), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExternalFetchFailed, err)
	}

	res := &dto.MappingValidationResult{Total: len(raw)}
	if len(raw) == 0 {
		res.Message = "外部名册为空，无法校验字段映射"
		return res, nil
	}

	sample := raw
	if n := s.cfg.MappingSampleSize; n > 0 && len(sample) > n {
		sample = sample[:n]
	}
	res.SampleSize = len(sample)

	nonEmpty := func(key string) func(map[string]any) bool {
		return func(r map[string]any) bool { return stringify(r[key]) != "" }
	}
	checks := []struct {
		field string
		key   string
		has   func(map[string]any) bool
	}{
		{"email", mapping.Email, nonEmpty(mapping.Email)},
		{"name", mapping.Name, nonEmpty(mapping.Name)},
		{"course", mapping.Course, nonEmpty(mapping.Course)},
		{"id", mapping.ID, nonEmpty(mapping.ID)},
		{"role", mapping.Role, func(r map[string]any) bool {
			return len(parseRoles(r[mapping.Role])) > 0 || len(parseRoles(r[rolesFallbackKey])) > 0
		}},
		{"timeframe", mapping.Timeframe, nonEmpty(mapping.Timeframe)},
	}

	res.Valid = true
	var missing []string
	for _, c := range checks {
		present := 0
		for _, r := range sample {
			if c.has(r) {
				present++
			}
		}
		coverage := math.Round(float64(present)*1000/float64(len(sample))) / 10
		res.Fields = append(res.Fields, dto.FieldCoverage{
			Field: c.field, Key: c.key, Present: present, Coverage: coverage,
		})
		if present == 0 {
			res.Valid = false
			missing = append(missing, fmt.Sprintf("%s(%s)", c.field, c.key))
		}
	}

	keys := make(map[string]bool)
	for _, r := range sample {
		for k := range r {
			keys[k] = true
		}
	}
	for k := range keys {
		res.SampleKeys = append(res.SampleKeys, k)
	}
	sort.Strings(res.SampleKeys)

	if res.Valid {
		res.Message = "字段映射校验通过"
	} else {
		res.Message = "以下字段在样本中均为空: " + strings.Join(missing, ", ")
	}
	return res, nil
}

// ── 内部辅助方法 ──

// loadSource 读取学校的启用配置，构造凭证与字段映射
func (s *syncService) loadSource(ctx context.Context, schoolID string) (externalapi.Credentials, FieldMapping, error) {
	apiCfg, err := s.repo.ExternalAPI.GetActiveBySchool(ctx, schoolID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return externalapi.Credentials{}, FieldMapping{}, ErrExternalAPINotConfigured
		}
		s.logger.Error("查询外部接口配置失败", zap.String("school_id", schoolID), zap.Error(err))
		return externalapi.Credentials{}, FieldMapping{}, err
	}

	baseURL := apiCfg.BaseURL
	if baseURL == "" {
		baseURL = s.cfg.DefaultBaseURL
	}
	creds := externalapi.Credentials{
		BaseURL:   baseURL,
		APIKey:    apiCfg.APIKey,
		APISecret: apiCfg.APISecret,
	}
	return creds, MappingFromConfig(apiCfg), nil
}

// roster 按学期名拉取名册，成功与失败结果都在本次对账内缓存
func (s *syncService) roster(ctx context.Context, pass *syncPass, period string) ([]map[string]any, error) {
	if raw, ok := pass.rosters[period]; ok {
		return raw, nil
	}
	if err, ok := pass.fetchErrs[period]; ok {
		return nil, err
	}

	raw, err := s.fetcher.FetchByPeriod(ctx, pass.creds, period)
	if err != nil {
		pass.fetchErrs[period] = err
		s.logger.Warn("拉取名册失败", zap.String("period", period), zap.Error(err))
		return nil, err
	}
	pass.rosters[period] = raw
	return raw, nil
}

// withSavepoint 在保存点内执行 fn，失败时回滚到保存点
// tx 为 nil（单元测试）时直接执行
func withSavepoint(tx *gorm.DB, name string, fn func() error) error {
	if tx == nil {
		return fn()
	}
	if err := tx.SavePoint(name).Error; err != nil {
		return fmt.Errorf("%w: %v", errSavepointBroken, err)
	}
	if err := fn(); err != nil {
		if rbErr := tx.RollbackTo(name).Error; rbErr != nil {
			return fmt.Errorf("%w: %v (原始错误: %v)", errSavepointBroken, rbErr, err)
		}
		return err
	}
	return nil
}

// [自证通过] internal/service/sync_service.go
