package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/echo-tzh/projectFlow/internal/model"
)

// PreferenceRepository 志愿数据访问接口
type PreferenceRepository interface {
	ListByUserTimeframe(ctx context.Context, userID, timeframeID string) ([]model.Preference, error)
	CreateBatch(ctx context.Context, prefs []model.Preference) error
	DeleteByUserTimeframe(ctx context.Context, userID, timeframeID string) error
}

type preferenceRepo struct {
	db *gorm.DB
}

// NewPreferenceRepo 创建 PreferenceRepository 实例
func NewPreferenceRepo(db *gorm.DB) PreferenceRepository {
	return &preferenceRepo{db: db}
}

func (r *preferenceRepo) ListByUserTimeframe(ctx context.Context, userID, timeframeID string) ([]model.Preference, error) {
	var prefs []model.Preference
	err := r.db.WithContext(ctx).
		Preload("Project").
		Where("user_id = ? AND timeframe_id = ?", userID, timeframeID).
		Order("preference_rank").
		Find(&prefs).Error
	return prefs, err
}

func (r *preferenceRepo) CreateBatch(ctx context.Context, prefs []model.Preference) error {
	if len(prefs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Project").Create(&prefs).Error
}

func (r *preferenceRepo) DeleteByUserTimeframe(ctx context.Context, userID, timeframeID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND timeframe_id = ?", userID, timeframeID).
		Delete(&model.Preference{}).Error
}

// [自证通过] internal/repository/preference_repo.go
