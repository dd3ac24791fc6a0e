package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"uctenky/backend/config"
)

// ErrNoRecipients 邮件缺少收件人
var ErrNoRecipients = errors.New("邮件缺少收件人")

// Message 一封纯文本邮件
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender 邮件发送接口
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New 根据配置创建发送器；未配置 SMTP 时返回仅记录日志的发送器
func New(cfg *config.MailConfig, logger *zap.Logger) (Sender, error) {
	if !cfg.Enabled() {
		logger.Warn("未配置 SMTP，邮件通知仅写入日志")
		return &LogSender{logger: logger}, nil
	}
	return NewSMTP(cfg, logger)
}

// ── SMTP ──

// SMTP 通过 SMTP 服务器发送邮件
type SMTP struct {
	client *mail.Client
	from   string
	logger *zap.Logger
}

// NewSMTP 创建 SMTP 发送器
func NewSMTP(cfg *config.MailConfig, logger *zap.Logger) (*SMTP, error) {
	opts := []mail.Option{mail.WithPort(cfg.SMTPPort)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	if cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("创建 SMTP 客户端失败: %w", err)
	}
	return &SMTP{client: client, from: cfg.From, logger: logger}, nil
}

// Send 发送邮件
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	m, err := build(s.from, msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	s.logger.Debug("邮件已发送", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func build(from string, msg Message) (*mail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("发件人地址无效: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("收件人地址无效: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

// ── 日志发送器 ──

// LogSender 只记录日志，不实际发送
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender 创建日志发送器
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send 记录邮件内容
func (s *LogSender) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	s.logger.Info("邮件通知（未发送）", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
