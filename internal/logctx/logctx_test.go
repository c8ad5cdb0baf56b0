package logctx

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestFromFallsBackToDefault(t *testing.T) {
	if From(context.Background()) != slog.Default() {
		t.Fatalf("expected slog.Default for empty context")
	}
}

func TestIntoFromRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil)).With("request_id", "r-1")

	From(Into(context.Background(), logger)).Info("hello")
	if !strings.Contains(buf.String(), "request_id=r-1") {
		t.Fatalf("logger from context lost its attributes: %q", buf.String())
	}
}
