// Package mailer defines the transactional-email capability consumed by the
// generation pipeline. Rendering and real delivery transport live outside
// this service; the pipeline only needs the send contract.
package mailer

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoRecipients is returned when a send is attempted with no recipients.
var ErrNoRecipients = errors.New("no recipients configured")

// Mailer sends one transactional email to the given recipients.
type Mailer interface {
	Send(ctx context.Context, subject, htmlBody string, recipients []string) error
}

// LogMailer is the test-mode implementation: it logs the send instead of
// delivering anything. Used when Email.TestMode is set and in tests.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("component", "log_mailer")}
}

// Send logs the email instead of sending it.
func (m *LogMailer) Send(ctx context.Context, subject, htmlBody string, recipients []string) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	m.logger.InfoContext(ctx, "email send suppressed (test mode)",
		"subject", subject,
		"recipients", recipients,
		"body_length", len(htmlBody))
	return nil
}
