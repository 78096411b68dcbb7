package credauth

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// AuditEvent is a structured record of one engine operation. Email and
// AccountID are filled when known; OTPs, passwords and tokens never appear
// in events or metadata.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	AccountID string            `json:"account_id,omitempty"`
	Email     string            `json:"email,omitempty"`
	IP        string            `json:"ip,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink struct{}

// Emit describes the emit operation and its observable behavior.
func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

// Emit describes the emit operation and its observable behavior.
func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events describes the events operation and its observable behavior.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one event per line. Writes are serialized, so a single sink
// can back a shared log stream.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		return &JSONWriterSink{}
	}
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

// Emit describes the emit operation and its observable behavior.
func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.enc == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// An event that fails to encode is dropped; the audit trail is
	// advisory and must never fail a credential flow.
	_ = s.enc.Encode(event)
}
