package password

// Multi hashes with Argon2id and verifies both Argon2id and bcrypt hashes.
type Multi struct {
	primary *Argon2
	legacy  *Bcrypt
}

// NewMulti combines an Argon2id primary with a bcrypt verifier. A nil legacy
// hasher is replaced by one with the default cost.
func NewMulti(primary *Argon2, legacy *Bcrypt) (*Multi, error) {
	if legacy == nil {
		var err error
		if legacy, err = NewBcrypt(0); err != nil {
			return nil, err
		}
	}
	return &Multi{primary: primary, legacy: legacy}, nil
}

// Default returns a Multi built from DefaultConfig.
func Default() *Multi {
	primary, err := NewArgon2(DefaultConfig())
	if err != nil {
		panic(err)
	}
	m, err := NewMulti(primary, nil)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Multi) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

func (m *Multi) Verify(password, encodedHash string) (bool, error) {
	if isBcrypt(encodedHash) {
		return m.legacy.Verify(password, encodedHash)
	}
	return m.primary.Verify(password, encodedHash)
}

// NeedsRehash reports whether encodedHash should be replaced on next login.
func (m *Multi) NeedsRehash(encodedHash string) bool {
	if isBcrypt(encodedHash) {
		return true
	}
	upgrade, err := m.primary.NeedsUpgrade(encodedHash)
	return err != nil || upgrade
}
