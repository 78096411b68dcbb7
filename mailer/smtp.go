// Package mailer delivers engine mail over SMTP. It implements
// credauth.Mailer; the engine renders subject and body and never learns how
// delivery happens.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// Config carries the SMTP endpoint and sender identity.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTP sends plain-text mail through a single SMTP relay using AUTH PLAIN.
type SMTP struct {
	config Config
	addr   string

	// send is swapped in tests; production leaves it nil and uses
	// smtp.SendMail.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP describes the newsmtp operation and its observable behavior.
//
// NewSMTP may return an error when input validation, dependency calls, or security checks fail.
// NewSMTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewSMTP(cfg Config) (*SMTP, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, errors.New("smtp port is invalid")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}

	return &SMTP{
		config: cfg,
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}, nil
}

// Send describes the send operation and its observable behavior.
//
// Send may return an error when input validation, dependency calls, or security checks fail.
// Send does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *SMTP) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return errors.New("recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(s.config.From, to, subject, body)

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	send := s.send
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(s.addr, auth, s.config.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// buildMessage assembles an RFC 5322 plain-text message. Header values are
// stripped of CR/LF so a caller-supplied subject cannot inject extra headers.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + sanitizeHeader(from) + "\r\n")
	b.WriteString("To: " + sanitizeHeader(to) + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func sanitizeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", "")
	value = strings.ReplaceAll(value, "\n", "")
	return value
}
