// Package cartauth provides the session and token lifecycle for a cookie-authenticated
// storefront API: signup, login, access renewal with refresh-token rotation, logout,
// and the access checks protected routes run before their handlers.
//
// Refresh-token validity lives in Redis, one entry per user identity. Access tokens
// are verified statelessly and the caller is resolved through a [UserProvider].
//
// Failed logins are counted per account and client address; once the budget
// is spent Login returns [ErrLoginRateLimited] until the window passes.
//
// Engine methods are safe to call from multiple goroutines after [Builder.Build].
//
// # Architecture boundaries
//
// cartauth is the public surface. It exposes [Engine], [Builder], [Config] and value
// types. Flow orchestration, metric storage and audit dispatch live under internal/.
// The HTTP surface (cookies, JSON bodies, status codes) lives in middleware/ and
// internal/transport/rest.
//
// # What this package must NOT do
//
//   - Expose Redis clients or credential digests in its public API.
//   - Read or write cookies; it deals in token strings.
//   - Import any sub-package that re-imports cartauth.
package cartauth
