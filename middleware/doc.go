// Package middleware exposes the HTTP access guards built on cartauth.Engine.
//
// # Guards
//
//   - [VerifyAccess] reads the access token cookie, resolves the caller through
//     Engine.VerifyAccess and attaches it to the request context.
//   - [AdminAccess] admits only callers with the admin role. It must be chained
//     after VerifyAccess.
//
// Handlers read the caller with [CallerFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT parse
// tokens, touch Redis or look users up itself; every decision is delegated to
// the Engine and only mapped to a status code and message here.
package middleware
