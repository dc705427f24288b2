package accessgate

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestJSONWriterSinkWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Unix(1700000000, 0).UTC(),
		EventType: "gate.redirect",
		Path:      "/admin/triage",
		Reason:    "sign_in",
		Redirect:  "/auth/sign-in",
	})
	sink.Emit(context.Background(), AuditEvent{
		EventType: "gate.allow",
		Path:      "/",
		Allowed:   true,
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}

	var first AuditEvent
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 0 is not valid JSON: %v", err)
	}
	if first.EventType != "gate.redirect" || first.Redirect != "/auth/sign-in" {
		t.Fatalf("unexpected decoded event: %+v", first)
	}
}

func TestJSONWriterSinkNilSafety(t *testing.T) {
	var sink *JSONWriterSink
	sink.Emit(context.Background(), AuditEvent{EventType: "gate.allow"})
	NewJSONWriterSink(nil).Emit(context.Background(), AuditEvent{EventType: "gate.allow"})
}

func TestChannelSinkRespectsContext(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Emit(context.Background(), AuditEvent{EventType: "gate.allow"})

	// Buffer full: a cancelled context must unblock the second emit.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		sink.Emit(ctx, AuditEvent{EventType: "gate.allow"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit did not return on cancelled context")
	}
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, sink)

	for i := 0; i < 3; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "gate.allow", Path: string(rune('a' + i))})
	}
	d.Close()

	want := []string{"a", "b", "c"}
	for i, path := range want {
		select {
		case e := <-sink.Events():
			if e.Path != path {
				t.Fatalf("event %d path = %q, want %q", i, e.Path, path)
			}
		default:
			t.Fatalf("missing event %d", i)
		}
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	// A sink that blocks until released, so the buffer saturates.
	release := make(chan struct{})
	var once sync.Once
	blocking := blockingSink{release: release}

	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, blocking)
	defer func() {
		once.Do(func() { close(release) })
		d.Close()
	}()

	// First event occupies the worker, second fills the buffer, the rest
	// must drop without blocking this goroutine.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "gate.allow"})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped events under pressure")
	}

	once.Do(func() { close(release) })
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(context.Context, AuditEvent) {
	<-s.release
}

func TestDispatcherDisabled(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, NewChannelSink(1))
	if d != nil {
		t.Fatal("disabled audit must not start a dispatcher")
	}
	// Nil dispatcher methods are inert.
	d.Emit(context.Background(), AuditEvent{})
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher dropped count must be zero")
	}
	d.Close()
}

func TestDispatcherEmitAfterClose(t *testing.T) {
	sink := NewChannelSink(4)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, sink)
	d.Close()
	d.Emit(context.Background(), AuditEvent{EventType: "gate.allow"})

	select {
	case e := <-sink.Events():
		t.Fatalf("no event expected after close, got %+v", e)
	default:
	}
}
