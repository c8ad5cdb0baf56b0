package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/cartauth"
	"github.com/MrEthical07/cartauth/internal/logctx"
	"github.com/MrEthical07/cartauth/internal/redact"
	"github.com/MrEthical07/cartauth/middleware"
	"github.com/go-chi/chi/v5"
)

// Handlers serves the auth routes.
type Handlers struct {
	engine  *cartauth.Engine
	cookies cookieWriter
}

func NewHandlers(engine *cartauth.Engine) *Handlers {
	return &Handlers{
		engine:  engine,
		cookies: newCookieWriter(engine.Config()),
	}
}

type signupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	User cartauth.Profile `json:"user"`
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var in signupRequest
	if err := decodeStrict(w, r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	if errs := validateStruct(in); errs != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgValidation, Errors: errs})
		return
	}

	res, err := h.engine.Signup(r.Context(), cartauth.SignupRequest{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
	})
	switch {
	case err == nil:
	case errors.Is(err, cartauth.ErrAccountExists):
		writeMessage(w, http.StatusBadRequest, msgUserExists)
		return
	case errors.Is(err, cartauth.ErrInvalidSignup):
		writeMessage(w, http.StatusBadRequest, msgInvalidSignup)
		return
	default:
		h.internal(w, r, "signup failed", err, slog.String("email", redact.Email(in.Email)))
		return
	}

	h.cookies.set(w, res)
	writeJSON(w, http.StatusCreated, userResponse{User: res.User})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(w, r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	if errs := validateStruct(in); errs != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgValidation, Errors: errs})
		return
	}

	res, err := h.engine.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, cartauth.ErrLoginRateLimited) {
			writeMessage(w, http.StatusTooManyRequests, msgTooManyLogins)
			return
		}
		if errors.Is(err, cartauth.ErrUnauthorized) {
			writeMessage(w, http.StatusUnauthorized, msgInvalidLogin)
			return
		}
		h.internal(w, r, "login failed", err, slog.String("email", redact.Email(in.Email)))
		return
	}

	h.cookies.set(w, res)
	writeJSON(w, http.StatusOK, userResponse{User: res.User})
}

// Logout clears both cookies even when the stored credential could not be deleted.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.engine.Logout(r.Context(), h.cookies.refreshToken(r))
	h.cookies.clear(w)
	if err != nil {
		h.internal(w, r, "logout failed", err)
		return
	}
	writeMessage(w, http.StatusOK, msgLoggedOut)
}

func (h *Handlers) RenewAccess(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.RenewAccess(r.Context(), h.cookies.refreshToken(r))
	switch {
	case err == nil:
	case errors.Is(err, cartauth.ErrRefreshMissing), errors.Is(err, cartauth.ErrRefreshExpired):
		writeMessage(w, http.StatusUnauthorized, msgAccessExpired)
		return
	case errors.Is(err, cartauth.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, msgInvalidRefresh)
		return
	default:
		h.internal(w, r, "renew access failed", err)
		return
	}

	h.cookies.set(w, res)
	writeMessage(w, http.StatusOK, msgRenewed)
}

// Profile must be mounted behind middleware.VerifyAccess.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		h.internal(w, r, "profile served without caller", errors.New("no caller in context"))
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user.Profile()})
}

// RevokeSessions must be mounted behind VerifyAccess and AdminAccess.
func (h *Handlers) RevokeSessions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := h.engine.RevokeSessions(r.Context(), userID); err != nil {
		if errors.Is(err, cartauth.ErrUserNotFound) {
			writeMessage(w, http.StatusBadRequest, msgBadRequest)
			return
		}
		h.internal(w, r, "revoke sessions failed", err, slog.String("target_user_id", userID))
		return
	}
	writeMessage(w, http.StatusOK, msgRevoked)
}

func (h *Handlers) internal(w http.ResponseWriter, r *http.Request, msg string, err error, attrs ...any) {
	args := append([]any{slog.Any("error", err)}, attrs...)
	logctx.From(r.Context()).ErrorContext(r.Context(), msg, args...)
	writeMessage(w, http.StatusInternalServerError, msgInternal)
}
