// Package prometheus exposes cartauth Engine metrics through
// prometheus/client_golang.
//
// [Collector] reads Engine.MetricsSnapshot on every scrape and emits const
// metrics: one cartauth_*_total counter per metric id, the access verification
// latency histogram and the audit drop counter.
//
// # What this package must NOT do
//
//   - Register into the global Prometheus registry; callers pick the registry.
//   - Mutate engine state.
package prometheus
