package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrEthical07/cartauth"
	"github.com/MrEthical07/cartauth/password"
	"github.com/google/uuid"
)

// Store is a goroutine-safe in-memory cartauth.UserProvider.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]cartauth.UserRecord
	byEmail map[string]string
	hasher  *password.Multi
	now     func() time.Time
}

// New returns an empty Store. A nil hasher selects password.Default().
func New(hasher *password.Multi) *Store {
	if hasher == nil {
		hasher = password.Default()
	}
	return &Store{
		byID:    make(map[string]cartauth.UserRecord),
		byEmail: make(map[string]string),
		hasher:  hasher,
		now:     time.Now,
	}
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (cartauth.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return cartauth.UserRecord{}, cartauth.ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *Store) GetUserByID(_ context.Context, userID string) (cartauth.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[userID]
	if !ok {
		return cartauth.UserRecord{}, cartauth.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) CreateUser(_ context.Context, input cartauth.CreateUserInput) (cartauth.UserRecord, error) {
	const op = "memory.CreateUser"

	if input.Role == "" {
		input.Role = cartauth.RoleCustomer
	}
	if !input.Role.Valid() {
		return cartauth.UserRecord{}, fmt.Errorf("%s: unknown role %q", op, input.Role)
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return cartauth.UserRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[input.Email]; taken {
		return cartauth.UserRecord{}, cartauth.ErrAccountExists
	}
	now := s.now().UTC()
	u := cartauth.UserRecord{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		Role:         input.Role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byID[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return u, nil
}

// ComparePassword verifies plaintext and upgrades outdated hashes in place.
func (s *Store) ComparePassword(_ context.Context, user cartauth.UserRecord, plaintext string) (bool, error) {
	ok, err := s.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil || !ok {
		return false, err
	}
	if s.hasher.NeedsRehash(user.PasswordHash) {
		if hash, err := s.hasher.Hash(plaintext); err == nil {
			s.mu.Lock()
			if cur, found := s.byID[user.ID]; found {
				cur.PasswordHash = hash
				cur.UpdatedAt = s.now().UTC()
				s.byID[user.ID] = cur
			}
			s.mu.Unlock()
		}
	}
	return true, nil
}

// Delete removes a user. Used to simulate accounts deleted while a session is live.
func (s *Store) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[userID]; ok {
		delete(s.byEmail, u.Email)
		delete(s.byID, userID)
	}
}

// Import stores a pre-built record as is, keeping its password hash.
func (s *Store) Import(u cartauth.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[u.ID] = u
	s.byEmail[u.Email] = u.ID
}

func (s *Store) SetRole(_ context.Context, userID string, role cartauth.Role) error {
	if !role.Valid() {
		return fmt.Errorf("memory.SetRole: unknown role %q", role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return cartauth.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = s.now().UTC()
	s.byID[userID] = u
	return nil
}
