package accessgate

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// AuditEvent is one structured record of a gate decision or experiment
// assignment.
type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	// EventType is "gate.allow", "gate.redirect", or "experiment.assign".
	EventType string `json:"event_type"`
	// DecisionID correlates the events emitted for a single request.
	DecisionID   string `json:"decision_id,omitempty"`
	Path         string `json:"path,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Role         string `json:"role,omitempty"`
	Organisation string `json:"organisation,omitempty"`
	Bucket       string `json:"bucket,omitempty"`
	// Reason is the policy outcome name for gate.* events.
	Reason   string `json:"reason,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	Allowed  bool   `json:"allowed"`
	// Error carries the swallowed verifier error, when one occurred.
	Error string `json:"error,omitempty"`
}

// AuditSink receives [AuditEvent] values from the gate's audit dispatcher.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink struct{}

// Emit discards the event.
func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink is a buffered channel-based [AuditSink] for in-process
// consumers.
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

// Emit delivers the event or gives up when ctx is done.
func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events exposes the delivery channel.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line to an [io.Writer].
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a JSONWriterSink that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit marshals and writes the event. Encoding failures are dropped; audit
// must never take down the request path.
func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
