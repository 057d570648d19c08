package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/echo-tzh/projectFlow/internal/model"
)

// AssignmentRepository 用户-角色-学期授权数据访问接口
// user_role_timeframes 是学期内权限的唯一依据；user_timeframes 为其冗余投影
type AssignmentRepository interface {
	// AssignRoleTimeframe 确保三元授权行存在，返回是否新插入
	AssignRoleTimeframe(ctx context.Context, userID, roleID, timeframeID string) (bool, error)
	// EnsureUserTimeframe 确保二元关联行存在，返回是否新插入
	EnsureUserTimeframe(ctx context.Context, userID, timeframeID string) (bool, error)
	RemoveUserTimeframe(ctx context.Context, userID, timeframeID string) error
	// DeleteRoleTimeframes 删除用户在该学期的全部三元授权行
	DeleteRoleTimeframes(ctx context.Context, userID, timeframeID string) error
	// DeleteRoleTimeframesExcept 删除用户在该学期中角色不在 keepRoleIDs 内的三元授权行，返回删除行数
	DeleteRoleTimeframesExcept(ctx context.Context, userID, timeframeID string, keepRoleIDs []string) (int64, error)
	HasRoleInTimeframe(ctx context.Context, userID, roleName, timeframeID string) (bool, error)
	// ListTimeframesForUserRole 列出用户以某角色参与的学期（按开始日期排序）
	ListTimeframesForUserRole(ctx context.Context, userID, roleName string) ([]model.Timeframe, error)
	ListRoleNamesInTimeframe(ctx context.Context, userID, timeframeID string) ([]string, error)
	// ListByTimeframe 列出学期内全部三元授权行（含 Role）
	ListByTimeframe(ctx context.Context, timeframeID string) ([]model.UserRoleTimeframe, error)
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) AssignRoleTimeframe(ctx context.Context, userID, roleID, timeframeID string) (bool, error) {
	db := r.db.WithContext(ctx)

	var existing model.UserRoleTimeframe
	err := db.Where("user_id = ? AND role_id = ? AND timeframe_id = ?", userID, roleID, timeframeID).
		First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	row := model.UserRoleTimeframe{UserID: userID, RoleID: roleID, TimeframeID: timeframeID}
	if err := db.Omit("assigned_at", "Role").Create(&row).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *assignmentRepo) EnsureUserTimeframe(ctx context.Context, userID, timeframeID string) (bool, error) {
	db := r.db.WithContext(ctx)

	var existing model.UserTimeframe
	err := db.Where("user_id = ? AND timeframe_id = ?", userID, timeframeID).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	row := model.UserTimeframe{UserID: userID, TimeframeID: timeframeID}
	if err := db.Omit("assigned_at").Create(&row).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *assignmentRepo) RemoveUserTimeframe(ctx context.Context, userID, timeframeID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND timeframe_id = ?", userID, timeframeID).
		Delete(&model.UserTimeframe{}).Error
}

func (r *assignmentRepo) DeleteRoleTimeframes(ctx context.Context, userID, timeframeID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND timeframe_id = ?", userID, timeframeID).
		Delete(&model.UserRoleTimeframe{}).Error
}

func (r *assignmentRepo) DeleteRoleTimeframesExcept(ctx context.Context, userID, timeframeID string, keepRoleIDs []string) (int64, error) {
	db := r.db.WithContext(ctx).Where("user_id = ? AND timeframe_id = ?", userID, timeframeID)
	if len(keepRoleIDs) > 0 {
		db = db.Where("role_id NOT IN ?", keepRoleIDs)
	}
	res := db.Delete(&model.UserRoleTimeframe{})
	return res.RowsAffected, res.Error
}

func (r *assignmentRepo) HasRoleInTimeframe(ctx context.Context, userID, roleName, timeframeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UserRoleTimeframe{}).
		Joins("JOIN roles ON roles.role_id = user_role_timeframes.role_id").
		Where("user_role_timeframes.user_id = ? AND user_role_timeframes.timeframe_id = ? AND roles.name = ?",
			userID, timeframeID, roleName).
		Count(&count).Error
	return count > 0, err
}

func (r *assignmentRepo) ListTimeframesForUserRole(ctx context.Context, userID, roleName string) ([]model.Timeframe, error) {
	var tfs []model.Timeframe
	err := r.db.WithContext(ctx).
		Joins("JOIN user_role_timeframes urt ON urt.timeframe_id = timeframes.timeframe_id").
		Joins("JOIN roles ON roles.role_id = urt.role_id").
		Where("urt.user_id = ? AND roles.name = ?", userID, roleName).
		Order("timeframes.start_date").
		Find(&tfs).Error
	return tfs, err
}

func (r *assignmentRepo) ListRoleNamesInTimeframe(ctx context.Context, userID, timeframeID string) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&model.UserRoleTimeframe{}).
		Joins("JOIN roles ON roles.role_id = user_role_timeframes.role_id").
		Where("user_role_timeframes.user_id = ? AND user_role_timeframes.timeframe_id = ?", userID, timeframeID).
		Order("roles.name").
		Pluck("roles.name", &names).Error
	return names, err
}

func (r *assignmentRepo) ListByTimeframe(ctx context.Context, timeframeID string) ([]model.UserRoleTimeframe, error) {
	var rows []model.UserRoleTimeframe
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("timeframe_id = ?", timeframeID).
		Find(&rows).Error
	return rows, err
}

// [自证通过] internal/repository/assignment_repo.go
