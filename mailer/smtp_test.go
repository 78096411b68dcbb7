package mailer

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
)

func TestNewSMTPValidatesConfig(t *testing.T) {
	cases := []Config{
		{Port: 587, From: "noreply@example.com"},
		{Host: "smtp.example.com", Port: 0, From: "noreply@example.com"},
		{Host: "smtp.example.com", Port: 587},
	}
	for i, cfg := range cases {
		if _, err := NewSMTP(cfg); err == nil {
			t.Errorf("case %d: expected config rejection", i)
		}
	}
}

func TestSendBuildsMessage(t *testing.T) {
	m, err := NewSMTP(Config{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "user",
		Password: "pass",
		From:     "noreply@example.com",
	})
	if err != nil {
		t.Fatalf("NewSMTP: %v", err)
	}

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	if err := m.Send(context.Background(), "alice@example.com", "Welcome", "Hi Alice,\n"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotFrom != "noreply@example.com" || len(gotTo) != 1 || gotTo[0] != "alice@example.com" {
		t.Errorf("envelope = %q -> %v", gotFrom, gotTo)
	}
	msg := string(gotMsg)
	if !strings.Contains(msg, "Subject: Welcome\r\n") {
		t.Errorf("missing subject header in %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\nHi Alice,\n") {
		t.Errorf("body not separated from headers in %q", msg)
	}
}

func TestSendStripsHeaderInjection(t *testing.T) {
	m, err := NewSMTP(Config{Host: "smtp.example.com", Port: 587, From: "noreply@example.com"})
	if err != nil {
		t.Fatalf("NewSMTP: %v", err)
	}

	var gotMsg []byte
	m.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotMsg = msg
		return nil
	}

	subject := "Welcome\r\nBcc: victim@example.com"
	if err := m.Send(context.Background(), "alice@example.com", subject, "body"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if strings.Contains(string(gotMsg), "Bcc:") {
		t.Fatalf("header injection survived: %q", gotMsg)
	}
}

func TestSendHonorsCancelledContext(t *testing.T) {
	m, err := NewSMTP(Config{Host: "smtp.example.com", Port: 587, From: "noreply@example.com"})
	if err != nil {
		t.Fatalf("NewSMTP: %v", err)
	}
	called := false
	m.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		called = true
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Send(ctx, "alice@example.com", "s", "b"); err == nil {
		t.Fatal("expected context error")
	}
	if called {
		t.Fatal("send must not run after cancellation")
	}
}
