package credauth

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func drainEvents(t *testing.T, sink *ChannelSink, want int) []AuditEvent {
	t.Helper()
	events := make([]AuditEvent, 0, want)
	timeout := time.After(2 * time.Second)
	for len(events) < want {
		select {
		case event := <-sink.Events():
			events = append(events, event)
		case <-timeout:
			t.Fatalf("received %d events, want %d", len(events), want)
		}
	}
	return events
}

func TestAuditEventsFlowToSink(t *testing.T) {
	sink := NewChannelSink(16)
	store := newFakeStore()
	mail := &fakeMailer{}

	cfg := DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1

	engine, err := New().
		WithConfig(cfg).
		WithSigningSecret(testSecret).
		WithStore(store).
		WithMailer(mail).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	ctx := WithClientIP(context.Background(), "203.0.113.7")
	ctx = WithUserAgent(ctx, "credauth-test/1.0")
	result, err := engine.Register(ctx, RegisterRequest{
		Name:            "Alice",
		Email:           "alice@example.com",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	events := drainEvents(t, sink, 1)
	event := events[0]
	if event.EventType != auditEventRegisterSuccess {
		t.Fatalf("event type = %q", event.EventType)
	}
	if !event.Success || event.AccountID != result.AccountID || event.IP != "203.0.113.7" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.UserAgent != "credauth-test/1.0" {
		t.Fatalf("user agent = %q", event.UserAgent)
	}

	// Audit events never carry secrets.
	otp := store.emailChallenges["alice@example.com"].OTP
	raw, _ := json.Marshal(event)
	if strings.Contains(string(raw), otp) || strings.Contains(string(raw), "hunter22") {
		t.Fatalf("secret leaked into audit event: %s", raw)
	}
}

func TestAuditFailureCarriesKind(t *testing.T) {
	sink := NewChannelSink(16)
	store := newFakeStore()

	cfg := DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1

	engine, err := New().
		WithConfig(cfg).
		WithSigningSecret(testSecret).
		WithStore(store).
		WithMailer(&fakeMailer{}).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	_, _ = engine.Login(context.Background(), "ghost@example.com", "whatever")

	events := drainEvents(t, sink, 1)
	if events[0].EventType != auditEventLoginFailure || events[0].Success {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if events[0].Error != "unauthorized" {
		t.Fatalf("error field = %q", events[0].Error)
	}
	if events[0].Metadata["reason"] != "unknown_email" {
		t.Fatalf("metadata = %v", events[0].Metadata)
	}
}

func TestAuditDisabledEmitsNothing(t *testing.T) {
	env := newTestEnv(t) // default config enables audit but wires no sink
	env.register(t, "alice@example.com")
	if env.engine.AuditDropped() != 0 {
		t.Fatal("no-op sink should consume everything")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	blocked := make(chan struct{})
	sink := blockingSink{release: blocked}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer func() {
		close(blocked)
		d.Close()
	}()

	// First event occupies the worker, second fills the buffer, the rest drop.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "x"})
	}

	deadline := time.Now().Add(2 * time.Second)
	for d.Dropped() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no events were dropped")
		}
		time.Sleep(time.Millisecond)
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(ctx context.Context, event AuditEvent) {
	<-s.release
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "x"})
	}
	d.Close()

	received := 0
	for {
		select {
		case <-sink.Events():
			received++
		default:
			if received != 5 {
				t.Fatalf("drained %d events, want 5", received)
			}
			return
		}
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{EventType: "login_success", Success: true})
	sink.Emit(context.Background(), AuditEvent{EventType: "login_failure"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d", len(lines))
	}
	var event AuditEvent
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event.EventType != "login_success" {
		t.Fatalf("event type = %q", event.EventType)
	}
}
