// Package mailer delivers confirmation codes to users by email.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
)

// Sender delivers a confirmation code to an email address.
type Sender interface {
	SendConfirmationCode(ctx context.Context, to, username, code string) error
}

// Config holds SMTP settings.
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// SMTPSender sends confirmation emails through an SMTP relay.
type SMTPSender struct {
	cfg    Config
	logger zerolog.Logger
}

// NewSMTPSender creates an SMTP-backed sender.
func NewSMTPSender(cfg Config, logger zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		logger: logger.With().Str("component", "mailer").Logger(),
	}
}

// SendConfirmationCode sends the code in a plain-text email.
func (s *SMTPSender) SendConfirmationCode(ctx context.Context, to, username, code string) error {
	subject := "YaMDb confirmation code"
	body := fmt.Sprintf(
		"Hello %s!\n\nYour confirmation code is:\n\n%s\n\nExchange it for an access token at /api/v1/auth/token/.\nIf you did not request this code, ignore this email.\n",
		username, code,
	)

	message := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", s.cfg.From, to, subject, body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}

	s.logger.Debug().Str("to", to).Msg("confirmation email sent")

	return nil
}

// LogSender writes codes to the log instead of sending email. It stands
// in for a relay in development and tests.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "mailer").Logger()}
}

// SendConfirmationCode logs the code at info level.
func (s *LogSender) SendConfirmationCode(ctx context.Context, to, username, code string) error {
	s.logger.Info().
		Str("to", to).
		Str("username", username).
		Str("code", code).
		Msg("confirmation code issued (log-only delivery)")
	return nil
}

// Ensure both senders implement Sender.
var (
	_ Sender = (*SMTPSender)(nil)
	_ Sender = (*LogSender)(nil)
)
