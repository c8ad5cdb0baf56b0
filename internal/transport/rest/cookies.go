package rest

import (
	"net/http"
	"time"

	"github.com/MrEthical07/cartauth"
)

// cookieWriter writes the session cookies described by cartauth.CookieConfig.
type cookieWriter struct {
	cfg        cartauth.CookieConfig
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func newCookieWriter(cfg cartauth.Config) cookieWriter {
	return cookieWriter{
		cfg:        cfg.Cookie,
		accessTTL:  cfg.JWT.AccessTTL,
		refreshTTL: cfg.JWT.RefreshTTL,
	}
}

func (c cookieWriter) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.cfg.Path,
		Domain:   c.cfg.Domain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: c.cfg.SameSite,
	}
}

func (c cookieWriter) set(w http.ResponseWriter, res *cartauth.AuthResult) {
	http.SetCookie(w, c.cookie(c.cfg.AccessName, res.AccessToken.Value, c.accessTTL))
	http.SetCookie(w, c.cookie(c.cfg.RefreshName, res.RefreshToken.Value, c.refreshTTL))
}

// clear expires both cookies on the client.
func (c cookieWriter) clear(w http.ResponseWriter) {
	for _, name := range []string{c.cfg.AccessName, c.cfg.RefreshName} {
		ck := c.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		http.SetCookie(w, ck)
	}
}

func (c cookieWriter) refreshToken(r *http.Request) string {
	if ck, err := r.Cookie(c.cfg.RefreshName); err == nil {
		return ck.Value
	}
	return ""
}
