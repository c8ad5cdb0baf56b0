// Package audit relays security-relevant session events to pluggable sinks.
//
// # Components
//
//   - [Sink]: consumer interface (channel, JSON lines, slog, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full behavior.
//   - [Event]: one record of a signup, login, renewal, logout, revoke or guard outcome.
//
// # Architecture boundaries
//
// This package owns buffering and delivery. The Engine decides which events exist
// and what they carry.
//
// # What this package must NOT do
//
//   - Import cartauth or any sibling internal package.
//   - Carry raw tokens, passwords or unredacted emails in events.
package audit
