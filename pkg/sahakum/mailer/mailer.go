package mailer

import (
	"crypto/tls"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Mailer delivers notification email. Sends are best-effort side
// channels: callers log failures and carry on.
type Mailer interface {
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPConfig holds SMTP connection settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail over SMTP using gomail
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates an SMTP-backed mailer
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(to, subject, htmlBody, textBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: m.cfg.Host}
	return d.DialAndSend(msg)
}

// LogMailer logs instead of sending. Used when SMTP is not configured
// (local development) so flows that send mail still work end to end.
type LogMailer struct {
	log *slog.Logger
}

// NewLogMailer creates a mailer that only logs
func NewLogMailer(log *slog.Logger) *LogMailer {
	if log == nil {
		log = slog.Default()
	}
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(to, subject, htmlBody, textBody string) error {
	m.log.Info("email suppressed (SMTP not configured)", "to", to, "subject", subject)
	return nil
}
