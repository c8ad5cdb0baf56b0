// Package metrics provides lock-free counters and a latency histogram for cartauth
// observability.
//
// # Design
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically. The histogram uses 8 fixed buckets (<=5ms ... +Inf). Both are
// allocation-free on the write path.
//
// # Architecture boundaries
//
// This package owns metric storage and snapshots. Export (Prometheus, OTel) lives
// in metrics/export/ and reads Snapshot values through the Engine.
//
// # What this package must NOT do
//
//   - Perform I/O.
//   - Import cartauth or any sibling package.
package metrics
