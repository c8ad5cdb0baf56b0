package session

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Entry is the stored refresh credential of one identity.
type Entry struct {
	UserID string
	Digest string
	// TTL is the remaining lifetime reported by Redis at read time.
	TTL time.Duration
}

// Digest returns the value stored for a refresh token. Equal tokens always
// produce equal digests, so comparing digests is equivalent to comparing tokens.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
