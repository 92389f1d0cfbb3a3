// Package mail delivers password-reset codes by SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"crypto-pulse/internal/config"
	"crypto-pulse/internal/services/auth"

	gomail "github.com/wneessen/go-mail"
)

const otpSubject = "Your OTP for Password Reset"

// OTPBody renders the plain-text reset message.
func OTPBody(code string, validMinutes int) string {
	return fmt.Sprintf("Your OTP is: %s. It is valid for %d minutes.", code, validMinutes)
}

// SMTPSender sends reset codes through an SMTP relay.
type SMTPSender struct {
	client       *gomail.Client
	from         string
	validMinutes int
}

// NewSMTPSender configures the relay from SMTP_* settings. Auth is enabled
// only when a username is set; TLS is used when the server offers it.
func NewSMTPSender(cfg config.Config) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUsername),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPSender{client: client, from: cfg.MailFrom, validMinutes: cfg.OTPTTLMinutes}, nil
}

// SendOTP mails code to the recipient.
func (s *SMTPSender) SendOTP(ctx context.Context, to, code string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(otpSubject)
	msg.SetBodyString(gomail.TypeTextPlain, OTPBody(code, s.validMinutes))

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}

// LogSender writes codes to the log instead of sending mail. Used when no
// SMTP host is configured.
type LogSender struct {
	log *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

// SendOTP logs the code at warn level so it stands out in development.
func (s *LogSender) SendOTP(_ context.Context, to, code string) error {
	s.log.Warn("smtp disabled, otp not mailed", "to", to, "otp", code)
	return nil
}

// NewSender picks the SMTP sender when SMTP_HOST is set, else the log sender.
func NewSender(cfg config.Config, log *slog.Logger) (auth.Mailer, error) {
	if cfg.SMTPHost == "" {
		return NewLogSender(log), nil
	}
	return NewSMTPSender(cfg)
}
