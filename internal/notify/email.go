package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// EmailChannel sends alert emails over SMTP. When no SMTP host is configured
// it degrades to logging the would-be message (dev mode) and still succeeds.
type EmailChannel struct {
	logger   *slog.Logger
	smtpHost string
	smtpPort int
	smtpUser string
	smtpPass string
	from     string
	to       []string
}

// EmailConfig carries SMTP settings for the email channel.
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       []string // recipient list
}

// NewEmailChannel creates the email delivery channel.
func NewEmailChannel(logger *slog.Logger, cfg EmailConfig) *EmailChannel {
	return &EmailChannel{
		logger:   logger,
		smtpHost: cfg.Host,
		smtpPort: cfg.Port,
		smtpUser: cfg.User,
		smtpPass: cfg.Password,
		from:     cfg.From,
		to:       cfg.To,
	}
}

// Name returns "email".
func (c *EmailChannel) Name() string { return "email" }

// Notify sends one plain-text email per dispatch to all recipients.
func (c *EmailChannel) Notify(_ context.Context, n Notification) error {
	if c.smtpHost == "" {
		c.logger.Info("notify: alert email (dev mode — SMTP not configured)",
			"alert_id", n.AlertID,
			"severity", n.Severity,
			"title", n.Title,
		)
		return nil
	}
	if len(c.to) == 0 {
		return fmt.Errorf("email: no recipients configured")
	}

	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(string(n.Severity)), n.Title)
	body := fmt.Sprintf(
		"%s\r\n\r\nalert_id: %s\r\nmetric_value: %.4f\r\nthreshold: %.4f\r\nraised_at: %s",
		n.Message, n.AlertID, n.MetricValue, n.ThresholdValue, n.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"),
	)
	if n.SessionID != nil {
		body += fmt.Sprintf("\r\nsession_id: %s", *n.SessionID)
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		c.from, strings.Join(c.to, ", "), subject, body,
	)

	addr := fmt.Sprintf("%s:%d", c.smtpHost, c.smtpPort)
	var auth smtp.Auth
	if c.smtpUser != "" {
		auth = smtp.PlainAuth("", c.smtpUser, c.smtpPass, c.smtpHost)
	}

	return smtp.SendMail(addr, auth, c.from, c.to, []byte(msg))
}
