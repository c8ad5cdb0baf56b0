// Package rest is the cookie-based HTTP surface of the auth service, mounted
// under /api/auth by cmd/cartauth.
//
// Routes:
//
//	POST   /signup            create a customer account and start a session
//	POST   /login             start a session
//	POST   /logout            end the session and clear both cookies
//	POST   /renew-access      rotate the refresh token and re-issue the access token
//	GET    /profile           the caller (VerifyAccess)
//	DELETE /sessions/{userID} revoke an identity's session (VerifyAccess + AdminAccess)
//
// Every error body is {"message": "..."}; payload validation failures also
// carry an "errors" map keyed by field.
package rest
