package middleware

import (
	"net/http"

	"github.com/MrEthical07/cartauth"
	"github.com/MrEthical07/cartauth/internal/logctx"
)

const msgAdminOnly = "Unauthorized access - Admin only!"

// AdminAccess admits only admin callers. Chain it after VerifyAccess; without a
// caller in the context every request is refused.
func AdminAccess(engine *cartauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CallerFromContext(r.Context())
			if !ok {
				logctx.From(r.Context()).ErrorContext(r.Context(), "AdminAccess mounted without VerifyAccess")
			}
			if err := engine.AuthorizeAdmin(r.Context(), user); err != nil {
				writeMessage(w, http.StatusForbidden, msgAdminOnly)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
