package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/echo-tzh/projectFlow/internal/model"
)

// TimeframeRepository 学期数据访问接口
type TimeframeRepository interface {
	Create(ctx context.Context, tf *model.Timeframe) error
	GetByID(ctx context.Context, id string) (*model.Timeframe, error)
	GetByName(ctx context.Context, schoolID, name string) (*model.Timeframe, error)
	ListBySchool(ctx context.Context, schoolID string) ([]model.Timeframe, error)
	// ListByUser 列出用户通过旧版二元关联绑定的学期（按开始日期排序）
	ListByUser(ctx context.Context, userID string) ([]model.Timeframe, error)
	Update(ctx context.Context, tf *model.Timeframe) error
	Delete(ctx context.Context, id string) error
}

type timeframeRepo struct {
	db *gorm.DB
}

// NewTimeframeRepo 创建 TimeframeRepository 实例
func NewTimeframeRepo(db *gorm.DB) TimeframeRepository {
	return &timeframeRepo{db: db}
}

func (r *timeframeRepo) Create(ctx context.Context, tf *model.Timeframe) error {
	return r.db.WithContext(ctx).Create(tf).Error
}

func (r *timeframeRepo) GetByID(ctx context.Context, id string) (*model.Timeframe, error) {
	var tf model.Timeframe
	err := r.db.WithContext(ctx).Where("timeframe_id = ?", id).First(&tf).Error
	if err != nil {
		return nil, err
	}
	return &tf, nil
}

func (r *timeframeRepo) GetByName(ctx context.Context, schoolID, name string) (*model.Timeframe, error) {
	var tf model.Timeframe
	err := r.db.WithContext(ctx).
		Where("school_id = ? AND name = ?", schoolID, name).
		First(&tf).Error
	if err != nil {
		return nil, err
	}
	return &tf, nil
}

func (r *timeframeRepo) ListBySchool(ctx context.Context, schoolID string) ([]model.Timeframe, error) {
	var tfs []model.Timeframe
	err := r.db.WithContext(ctx).
		Where("school_id = ?", schoolID).
		Order("start_date DESC").
		Find(&tfs).Error
	return tfs, err
}

func (r *timeframeRepo) ListByUser(ctx context.Context, userID string) ([]model.Timeframe, error) {
	var tfs []model.Timeframe
	err := r.db.WithContext(ctx).
		Joins("JOIN user_timeframes ut ON ut.timeframe_id = timeframes.timeframe_id").
		Where("ut.user_id = ?", userID).
		Order("timeframes.start_date").
		Find(&tfs).Error
	return tfs, err
}

func (r *timeframeRepo) Update(ctx context.Context, tf *model.Timeframe) error {
	return r.db.WithContext(ctx).Save(tf).Error
}

func (r *timeframeRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("timeframe_id = ?", id).Delete(&model.Timeframe{}).Error
}

// [自证通过] internal/repository/timeframe_repo.go
