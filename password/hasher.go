package password

import "errors"

// MinLength is the shortest accepted password, in bytes.
const MinLength = 6

var (
	// ErrTooShort is returned by Hash for passwords shorter than MinLength.
	ErrTooShort = errors.New("password too short")
	// ErrUnsupportedHash is returned when a stored hash uses an unknown scheme.
	ErrUnsupportedHash = errors.New("unsupported password hash")
)

// Hasher produces and checks encoded password hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}
