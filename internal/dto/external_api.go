package dto

// ── 外部接口配置 DTO ──

// SaveExternalAPIConfigRequest 保存外部接口配置请求
type SaveExternalAPIConfigRequest struct {
	BaseURL        string `json:"base_url"        binding:"omitempty,url,max=255"`
	APIKey         string `json:"api_key"         binding:"required,max=255"`
	APISecret      string `json:"api_secret"      binding:"omitempty,max=255"`
	EmailField     string `json:"email_field"     binding:"omitempty,max=100"`
	NameField      string `json:"name_field"      binding:"omitempty,max=100"`
	CourseField    string `json:"course_field"    binding:"omitempty,max=100"`
	IDField        string `json:"id_field"        binding:"omitempty,max=100"`
	RoleField      string `json:"role_field"      binding:"omitempty,max=100"`
	TimeframeField string `json:"timeframe_field" binding:"omitempty,max=100"`
}

// ExternalAPIConfigResponse 外部接口配置响应（密钥脱敏）
type ExternalAPIConfigResponse struct {
	ID             string `json:"id"`
	BaseURL        string `json:"base_url"`
	APIKeyMasked   string `json:"api_key_masked"`
	HasSecret      bool   `json:"has_secret"`
	EmailField     string `json:"email_field"`
	NameField      string `json:"name_field"`
	CourseField    string `json:"course_field"`
	IDField        string `json:"id_field"`
	RoleField      string `json:"role_field"`
	TimeframeField string `json:"timeframe_field"`
	IsActive       bool   `json:"is_active"`
	UpdatedAt      string `json:"updated_at"`
}

// ExternalAPIStatusResponse 配置状态
type ExternalAPIStatusResponse struct {
	Configured bool   `json:"configured"`
	BaseURL    string `json:"base_url,omitempty"`
}

// [自证通过] internal/dto/external_api.go
