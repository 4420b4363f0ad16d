package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qrplate/qrplate/internal/config"
	"github.com/wneessen/go-mail"
)

// Sender delivers a single outbound email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPSender sends mail through a configured SMTP relay.
type SMTPSender struct {
	client *mail.Client
	from   string
}

// NewSMTPSender creates a sender from mail configuration.
func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return &SMTPSender{client: client, from: cfg.From}, nil
}

// Send delivers one message. Callers treat failures as best-effort: the
// worker records them and moves on.
func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// LogSender logs notifications instead of delivering them. Used when no
// SMTP host is configured (local development).
type LogSender struct{}

// NewLogSender creates a log-only sender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the message and reports success.
func (s *LogSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	slog.Info("Mail delivery skipped (no SMTP host configured)",
		"to", to,
		"subject", subject)
	return nil
}

// FromConfig returns an SMTP sender when a host is configured, otherwise
// the log-only sender.
func FromConfig(cfg config.MailConfig) (Sender, error) {
	if cfg.Host == "" {
		slog.Info("No SMTP host configured, notifications will be logged only")
		return NewLogSender(), nil
	}
	return NewSMTPSender(cfg)
}
