// Package mailer sends transactional email (verification and password
// reset) over SMTP. Dispatch is synchronous within the request's lifetime
// and best-effort: callers decide whether a send failure is fatal.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/user/storefront-go/config"
)

// Mailer dispatches account lifecycle email.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, token string) error
	SendPasswordResetEmail(ctx context.Context, to, token string) error
}

const verificationBody = `
<h3>Welcome to Storefront!</h3>
<p>Please verify your email by clicking the link below:</p>
<p><a href="%s">Verify Email</a></p>
<p>If you didn't request this verification, please ignore this email.</p>
`

const passwordResetBody = `
<h3>Password Reset Request</h3>
<p>You have requested to reset your password. Click the link below to reset it:</p>
<p><a href="%s">Reset Password</a></p>
<p>If you didn't request this reset, please ignore this email.</p>
<p>This link will expire in 1 hour.</p>
`

// SMTPMailer sends mail through the configured SMTP relay. A send is
// attempted twice before the error is returned.
type SMTPMailer struct {
	cfg     config.MailConfig
	baseURL string
}

// NewSMTPMailer creates a mailer from the mail transport configuration.
// baseURL is the public base URL embedded in the emailed links.
func NewSMTPMailer(cfg config.MailConfig, baseURL string) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, baseURL: baseURL}
}

// SendVerificationEmail emails a verification link carrying the token.
func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to, token string) error {
	link := VerificationLink(m.baseURL, token)
	return m.send(ctx, to, "Verify your email", fmt.Sprintf(verificationBody, link))
}

// SendPasswordResetEmail emails a password reset link carrying the token.
func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	link := PasswordResetLink(m.baseURL, token)
	return m.send(ctx, to, "Reset Your Password", fmt.Sprintf(passwordResetBody, link))
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, htmlBody string) error {
	if m.cfg.Host == "" {
		// Log-only mode for environments without an SMTP relay.
		slog.InfoContext(ctx, "mail transport not configured, logging instead of sending",
			"to", to, "subject", subject)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if err = dialer.DialAndSend(msg); err == nil {
			return nil
		}
	}
	return fmt.Errorf("sending %q to %s: %w", subject, to, err)
}

// VerificationLink builds the link a user follows to consume a
// verification token.
func VerificationLink(baseURL, token string) string {
	return fmt.Sprintf("%s/auth/verify?token=%s", baseURL, token)
}

// PasswordResetLink builds the link a user follows to reach the
// reset-password form.
func PasswordResetLink(baseURL, token string) string {
	return fmt.Sprintf("%s/auth/reset-password?token=%s", baseURL, token)
}
