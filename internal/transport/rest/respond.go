package rest

import (
	"encoding/json"
	"net/http"
)

const (
	msgInternal       = "Internal server error"
	msgBadRequest     = "Invalid request body"
	msgValidation     = "Validation failed"
	msgUserExists     = "User already exists!"
	msgInvalidSignup  = "Invalid signup details"
	msgInvalidLogin   = "Invalid login credentials!"
	msgTooManyLogins  = "Too many login attempts, try again later!"
	msgLoggedOut      = "Logged out successfully!"
	msgRenewed        = "Access renewed successfully!"
	msgAccessExpired  = "access expired"
	msgInvalidRefresh = "invalid credentials"
	msgRevoked        = "Sessions revoked!"
)

type messageResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// decodeStrict rejects unknown fields and bodies over 1 MiB.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
