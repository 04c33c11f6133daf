package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/model"
)

// EmailConfig holds the SMTP settings for escalation mail
type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// EmailEscalator delivers escalation notifications over SMTP to the
// address named by the escalation rule.
type EmailEscalator struct {
	logger *zap.Logger
	config EmailConfig
}

// NewEmailEscalator creates a new email escalator
func NewEmailEscalator(config EmailConfig, logger *zap.Logger) *EmailEscalator {
	return &EmailEscalator{
		logger: logger.Named("email-escalator"),
		config: config,
	}
}

// Name implements escalation.Escalator
func (e *EmailEscalator) Name() string { return "email" }

// Escalate implements escalation.Escalator
func (e *EmailEscalator) Escalate(ctx context.Context, alert *model.Alert, rule model.EscalationRule) error {
	if rule.EscalateTo == "" {
		return fmt.Errorf("escalation rule has no recipient")
	}

	subject := fmt.Sprintf("[%s] Unacknowledged alert: %s", alert.Severity, alert.Title)
	body := alert.Message
	if alert.PatientName != "" {
		body = fmt.Sprintf("Patient: %s\r\n\r\n%s", alert.PatientName, body)
	}
	if alert.Recommendation != "" {
		body = fmt.Sprintf("%s\r\n\r\nRecommended action: %s", body, alert.Recommendation)
	}

	msg := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n",
		e.config.From,
		rule.EscalateTo,
		subject,
		body)

	auth := smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)
	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)
	if err := smtp.SendMail(addr, auth, e.config.From, []string{rule.EscalateTo}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send escalation mail: %w", err)
	}

	e.logger.Info("Escalation mail sent",
		zap.String("alert_id", alert.ID),
		zap.String("to", rule.EscalateTo))
	return nil
}
