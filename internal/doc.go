// Package internal holds packages that are private to cartauth.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - config: file and environment loader for the service binaries
//   - flows: pure-function orchestrators for every Engine operation
//   - logctx: request-scoped slog loggers
//   - metrics: lock-free counters and latency histograms
//   - rate: Redis-backed failed-login limiter
//   - redact: masking of personal data in log attributes
//   - transport/rest: chi router, handlers and cookie plumbing
//   - userstore: UserProvider implementations (MongoDB, in-memory)
//
// # What this package must NOT do
//
//   - Export types that appear in the public cartauth API.
//   - Be imported by any package outside the cartauth module.
package internal
