// Package session provides the Redis-backed credential store that holds, per user
// identity, the digest of the single refresh token currently allowed to renew access.
//
// # Key layout
//
//	<prefix>:<userID>         SHA-256 hex digest of the current refresh token, TTL = refresh lifetime
//	<prefix>:reuse:<userID>   count of superseded-token presentations inside the reuse window
//
// Writing a new entry for an identity overwrites the previous one, so at most one
// refresh token per identity is ever valid.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the digest helper. It does NOT
// parse JWTs, look up users, or decide HTTP outcomes; those belong to the Engine and
// the transport.
//
// # What this package must NOT do
//
//   - Import cartauth, jwt, or middleware (no upward imports).
//   - Store raw refresh tokens.
//   - Map Redis failures to "not found"; every transport error is [ErrRedisUnavailable].
package session
