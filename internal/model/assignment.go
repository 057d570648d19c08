package model

import "time"

// UserRole 用户-全局角色关联 — 对应 user_roles
type UserRole struct {
	UserID     string    `gorm:"type:uuid;primaryKey"               json:"user_id"`
	RoleID     string    `gorm:"type:uuid;primaryKey"               json:"role_id"`
	AssignedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"assigned_at"`
}

// TableName 指定表名
func (UserRole) TableName() string { return "user_roles" }

// UserTimeframe 用户-学期关联（旧版，与角色无关）— 对应 user_timeframes
// 是 user_role_timeframes 的冗余投影：用户在该学期至少持有一个角色时存在
type UserTimeframe struct {
	UserID      string    `gorm:"type:uuid;primaryKey"               json:"user_id"`
	TimeframeID string    `gorm:"type:uuid;primaryKey"               json:"timeframe_id"`
	AssignedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"assigned_at"`
}

// TableName 指定表名
func (UserTimeframe) TableName() string { return "user_timeframes" }

// UserRoleTimeframe 用户-角色-学期授权记录 — 对应 user_role_timeframes
// 行存在即表示该用户在该学期持有该角色，是学期内权限判断的唯一依据
type UserRoleTimeframe struct {
	UserID      string    `gorm:"type:uuid;primaryKey"               json:"user_id"`
	RoleID      string    `gorm:"type:uuid;primaryKey"               json:"role_id"`
	TimeframeID string    `gorm:"type:uuid;primaryKey"               json:"timeframe_id"`
	AssignedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"assigned_at"`

	// 关联
	Role *Role `gorm:"foreignKey:RoleID;references:RoleID" json:"role,omitempty"`
}

// TableName 指定表名
func (UserRoleTimeframe) TableName() string { return "user_role_timeframes" }

// [自证通过] internal/model/assignment.go
