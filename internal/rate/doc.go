// Package rate implements the Redis-backed failed-login limiter.
//
// # Window semantics
//
// Fixed-window counters: INCR + EXPIRE on the first hit of a window. Keys:
//   - <prefix>:user:<email> failed logins per account
//   - <prefix>:ip:<addr>    failed logins per client address
//
// Only failures are counted; a successful login clears the account counter.
//
// # What this package must NOT do
//
//   - Decide what a failure is; the Engine reports them.
//   - Be imported outside the cartauth module.
package rate
