package cartauth

import (
	"io"
	"log/slog"

	internalaudit "github.com/MrEthical07/cartauth/internal/audit"
)

// AuditEvent is one security-relevant record emitted by the Engine.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the Engine's dispatcher goroutine.
type AuditSink = internalaudit.Sink

type (
	NoOpSink       = internalaudit.NoOpSink
	ChannelSink    = internalaudit.ChannelSink
	JSONWriterSink = internalaudit.JSONWriterSink
	SlogSink       = internalaudit.SlogSink
)

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
