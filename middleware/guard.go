package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/cartauth"
	"github.com/MrEthical07/cartauth/internal/logctx"
)

const (
	msgTokenMissing = "Unauthorized access - token not found!"
	msgTokenExpired = "Unauthorized access - token expired!"
	msgTokenInvalid = "Unauthorized access - invalid token!"
	msgUserNotFound = "Unauthorized access - user not found!"
	msgInternal     = "Internal server error"
)

type callerContextKey struct{}

// CallerFromContext returns the user attached by VerifyAccess.
func CallerFromContext(ctx context.Context) (*cartauth.UserRecord, bool) {
	u, ok := ctx.Value(callerContextKey{}).(*cartauth.UserRecord)
	return u, ok && u != nil
}

// WithCaller attaches u to ctx the way VerifyAccess does. Intended for tests
// of handlers mounted behind the guard.
func WithCaller(ctx context.Context, u *cartauth.UserRecord) context.Context {
	return context.WithValue(ctx, callerContextKey{}, u)
}

// VerifyAccess rejects requests without a valid access token cookie and
// attaches the resolved caller otherwise.
func VerifyAccess(engine *cartauth.Engine) func(http.Handler) http.Handler {
	cookieName := engine.Config().Cookie.AccessName

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(cookieName); err == nil {
				token = c.Value
			}

			user, err := engine.VerifyAccess(r.Context(), token)
			if err != nil {
				status, msg := guardFailure(err)
				if status == http.StatusInternalServerError {
					logctx.From(r.Context()).ErrorContext(r.Context(), "access verification failed", slog.Any("error", err))
				}
				writeMessage(w, status, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), user)))
		})
	}
}

func guardFailure(err error) (int, string) {
	switch {
	case errors.Is(err, cartauth.ErrTokenMissing):
		return http.StatusUnauthorized, msgTokenMissing
	case errors.Is(err, cartauth.ErrTokenExpired):
		return http.StatusUnauthorized, msgTokenExpired
	case errors.Is(err, cartauth.ErrCallerUnknown):
		return http.StatusUnauthorized, msgUserNotFound
	case errors.Is(err, cartauth.ErrUnauthorized):
		return http.StatusUnauthorized, msgTokenInvalid
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
