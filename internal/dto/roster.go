package dto

// ── 名册导入 / 欢迎邮件 DTO ──

// RosterRow Excel 名册中的一行
type RosterRow struct {
	Row            int    `json:"row"` // Excel 行号（从 2 开始）
	StudentStaffID string `json:"id"`
	Name           string `json:"name"`
	Course         string `json:"course"`
	Email          string `json:"email"`
	Role           string `json:"role"`
}

// ImportRosterResult 名册导入结果
type ImportRosterResult struct {
	Total    int              `json:"total"`
	Created  int              `json:"created"`
	Updated  int              `json:"updated"`
	Assigned int              `json:"assigned"`
	Failed   int              `json:"failed"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}

// ImportRowError 导入错误详情
type ImportRowError struct {
	Row    int    `json:"row"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason"`
}

// SendWelcomeEmailsRequest 发送欢迎邮件请求
type SendWelcomeEmailsRequest struct {
	PendingOnly *bool `json:"pending_only"` // 默认 true：只发给 email_sent=false 的用户
}

// WelcomeEmailResult 欢迎邮件发送结果
type WelcomeEmailResult struct {
	Sent         int      `json:"sent"`
	Failed       int      `json:"failed"`
	Skipped      int      `json:"skipped"`
	FailedEmails []string `json:"failed_emails,omitempty"`
}

// [自证通过] internal/dto/roster.go
