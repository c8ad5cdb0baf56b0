package rest

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/MrEthical07/cartauth"
	"github.com/MrEthical07/cartauth/middleware"
	"github.com/go-chi/chi/v5"
)

// Options configures NewRouter.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// BasePath is where the auth routes are mounted, "/api/auth" by default.
	BasePath string
	// TrustedProxies lists the peers whose forwarding headers are believed.
	// Empty means the socket address is always the client address.
	TrustedProxies []netip.Prefix
}

// NewRouter builds the chi router with the middleware stack and auth routes.
func NewRouter(engine *cartauth.Engine, opts Options) http.Handler {
	if opts.BasePath == "" {
		opts.BasePath = "/api/auth"
	}

	root := chi.NewRouter()
	// outermost first
	root.Use(
		Recover(),
		RequestID(),
		ClientIP(opts.TrustedProxies),
		Logging(opts.Logger),
		Timeout(opts.Timeout),
	)

	h := NewHandlers(engine)
	root.Route(opts.BasePath, func(r chi.Router) {
		registerRoutes(r, engine, h)
	})
	root.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	return root
}

func registerRoutes(r chi.Router, engine *cartauth.Engine, h *Handlers) {
	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Post("/renew-access", h.RenewAccess)

	r.Group(func(r chi.Router) {
		r.Use(middleware.VerifyAccess(engine))
		r.Get("/profile", h.Profile)

		r.With(middleware.AdminAccess(engine)).Delete("/sessions/{userID}", h.RevokeSessions)
	})
}
