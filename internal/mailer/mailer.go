// Package mailer sends transactional email (login codes) over SMTP.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var otpTemplate = template.Must(template.ParseFS(templateFS, "templates/otp.html"))

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer is what the auth service needs from an email transport.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string, validFor time.Duration) error
}

// SMTPMailer delivers through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg Config
}

func NewSMTPMailer(cfg Config) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("SMTP_HOST and MAIL_FROM must be set")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg}, nil
}

type otpData struct {
	Code    string
	Minutes int
}

// RenderOTP renders the HTML body of the login code email.
func RenderOTP(code string, validFor time.Duration) (string, error) {
	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, otpData{Code: code, Minutes: int(validFor.Minutes())}); err != nil {
		return "", fmt.Errorf("failed to render otp email: %w", err)
	}
	return buf.String(), nil
}

func (m *SMTPMailer) SendOTP(ctx context.Context, to, code string, validFor time.Duration) error {
	body, err := RenderOTP(code, validFor)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("failed to set recipient %s: %w", to, err)
	}
	msg.Subject("Your Police Mobile Directory login code")
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextHTML, body)
	msg.AddAlternativeString(mail.TypeTextPlain, fmt.Sprintf("Your login code is %s. It expires in %d minutes.", code, int(validFor.Minutes())))

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send otp email: %w", err)
	}
	return nil
}
