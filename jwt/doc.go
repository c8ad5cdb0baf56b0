// Package jwt issues and verifies the two signed token kinds used by cartauth:
// short-lived access tokens and long-lived refresh tokens.
//
// Each kind is signed with its own HS256 secret, so a token of one kind never
// verifies as the other even when the claim layout is identical.
//
// # Architecture boundaries
//
// This package is stateless. It does NOT consult the credential store, look up
// users, or decide whether a valid refresh token is still the current one; those
// checks belong to the Engine.
//
// # What this package must NOT do
//
//   - Import cartauth, session, or middleware (no upward imports).
//   - Log token material.
package jwt
