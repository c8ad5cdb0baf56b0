package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) { s.count.Add(1) }

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, Event) { <-s.gate }

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{EventType: "login_success"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

func TestDispatcherFlushesOnClose(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 64}, sink)
	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), Event{EventType: "login_success"})
	}
	d.Close()
	if got := sink.count.Load(); got != 50 {
		t.Fatalf("expected 50 delivered events, got %d", got)
	}

	d.Emit(context.Background(), Event{EventType: "late"})
	if got := sink.count.Load(); got != 50 {
		t.Fatalf("expected emit after close to be ignored, got %d", got)
	}
}

func TestDispatcherDropIfFull(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	deadline := time.Now().Add(time.Second)
	for d.Dropped() == 0 && time.Now().Before(deadline) {
		d.Emit(context.Background(), Event{EventType: "refresh_success"})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a blocked sink and full buffer")
	}
	close(sink.gate)
	d.Close()
}

func TestDispatcherBlockingRespectsContext(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	// one event held by the sink, one in the buffer
	d.Emit(context.Background(), Event{})
	d.Emit(context.Background(), Event{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	doneCh := make(chan struct{})
	go func() {
		d.Emit(ctx, Event{})
		close(doneCh)
	}()
	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("blocking emit did not honor context cancellation")
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{EventType: "logout", UserID: "u1", Success: true})
	sink.Emit(context.Background(), Event{EventType: "refresh_reuse_detected", UserID: "u1", Error: "refresh_reuse"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var ev Event
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if ev.EventType != "refresh_reuse_detected" || ev.Success || ev.Error != "refresh_reuse" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewSlogSink(logger)

	sink.Emit(context.Background(), Event{EventType: "login_failure", Error: "invalid_credentials"})

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec["level"] != "WARN" || rec["event_type"] != "login_failure" || rec["component"] != "audit" {
		t.Fatalf("unexpected record %v", rec)
	}
}
