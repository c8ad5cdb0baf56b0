package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	argon2Prefix          = "$argon2id$"
)

// Config holds Argon2id cost parameters.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns the parameters used for new hashes.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        1,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2 is the Argon2id [Hasher].
type Argon2 struct {
	config Config
}

type argon2Hash struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// NewArgon2 validates cfg against minimum cost parameters.
func NewArgon2(cfg Config) (*Argon2, error) {
	switch {
	case cfg.Memory < minMemoryKB:
		return nil, errors.New("password memory must be >= 8192 KB")
	case cfg.Time < minTimeCost:
		return nil, errors.New("password time must be >= 1")
	case cfg.Parallelism < minParallelism:
		return nil, errors.New("password parallelism must be >= 1")
	case cfg.SaltLength < minSaltLength:
		return nil, errors.New("password salt length must be >= 16")
	case cfg.KeyLength < minKeyLength:
		return nil, errors.New("password key length must be >= 16")
	}
	return &Argon2{config: cfg}, nil
}

// Hash derives a PHC-encoded Argon2id hash with a fresh random salt.
func (a *Argon2) Hash(password string) (string, error) {
	// Raw bytes, no Unicode normalization.
	if len(password) < MinLength {
		return "", ErrTooShort
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)

	return fmt.Sprintf(
		"%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encodedHash in constant time.
func (a *Argon2) Verify(password, encodedHash string) (bool, error) {
	h, err := decodeArgon2(encodedHash)
	if err != nil {
		return false, err
	}
	computed := argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.parallelism, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(computed, h.key) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was produced with weaker parameters
// than the current configuration.
func (a *Argon2) NeedsUpgrade(encodedHash string) (bool, error) {
	h, err := decodeArgon2(encodedHash)
	if err != nil {
		return false, err
	}
	return a.config.Memory > h.memory ||
		a.config.Time > h.time ||
		a.config.Parallelism > h.parallelism ||
		a.config.KeyLength != uint32(len(h.key)), nil
}

func decodeArgon2(encoded string) (*argon2Hash, error) {
	if !strings.HasPrefix(encoded, argon2Prefix) {
		return nil, ErrUnsupportedHash
	}
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, errors.New("invalid PHC format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, errors.New("invalid argon2 version")
	}
	if version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	var h argon2Hash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memory, &h.time, &h.parallelism); err != nil {
		return nil, errors.New("invalid argon2 parameters")
	}
	if h.memory < minMemoryKB || h.time < minTimeCost || h.parallelism < minParallelism {
		return nil, errors.New("argon2 parameters below minimum")
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(h.salt) < int(minSaltLength) {
		return nil, errors.New("invalid salt encoding")
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(h.key) == 0 {
		return nil, errors.New("invalid hash encoding")
	}
	return &h, nil
}
