// Package otel publishes cartauth Engine metrics through OpenTelemetry.
//
// Counters are grouped per lifecycle step: one observable counter for logins
// with an "outcome" attribute (success, failure, rate_limited), one for
// renewals (success, failure, reuse), and so on. Access-verification latency is
// a gauge of cumulative counts with an "le" attribute per bucket bound.
// A single callback reads Engine.MetricsSnapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
