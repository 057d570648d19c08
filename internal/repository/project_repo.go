package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/echo-tzh/projectFlow/internal/model"
)

// ProjectRepository 项目数据访问接口
type ProjectRepository interface {
	Create(ctx context.Context, p *model.Project) error
	GetByID(ctx context.Context, id string) (*model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	// Delete 删除项目，志愿行由外键级联删除
	Delete(ctx context.Context, id string) error
	ListByTimeframe(ctx context.Context, timeframeID, keyword string, offset, limit int) ([]model.Project, int64, error)
	CountByTimeframe(ctx context.Context, timeframeID string) (int64, error)
}

type projectRepo struct {
	db *gorm.DB
}

// NewProjectRepo 创建 ProjectRepository 实例
func NewProjectRepo(db *gorm.DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) Create(ctx context.Context, p *model.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *projectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := r.db.WithContext(ctx).Where("project_id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) Update(ctx context.Context, p *model.Project) error {
	return r.db.WithContext(ctx).Model(&model.Project{}).
		Where("project_id = ?", p.ProjectID).
		Updates(map[string]interface{}{
			"title":               p.Title,
			"description":         p.Description,
			"student_capacity":    p.StudentCapacity,
			"supervisor_capacity": p.SupervisorCapacity,
			"assessor_capacity":   p.AssessorCapacity,
			"updated_by":          p.UpdatedBy,
			"updated_at":          gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

func (r *projectRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("project_id = ?", id).Delete(&model.Project{}).Error
}

func (r *projectRepo) ListByTimeframe(ctx context.Context, timeframeID, keyword string, offset, limit int) ([]model.Project, int64, error) {
	var projects []model.Project
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Project{}).Where("timeframe_id = ?", timeframeID)
	if keyword != "" {
		db = db.Where("title ILIKE ?", "%"+keyword+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("title").Offset(offset).Limit(limit).Find(&projects).Error
	return projects, total, err
}

func (r *projectRepo) CountByTimeframe(ctx context.Context, timeframeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("timeframe_id = ?", timeframeID).
		Count(&count).Error
	return count, err
}

// [自证通过] internal/repository/project_repo.go
