package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashAndVerify(t *testing.T) {
	hasher, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := hasher.Verify("secret1", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected password verification to succeed")
	}

	ok, err = hasher.Verify("secret2", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	hasher, _ := NewArgon2(testConfig())
	if _, err := hasher.Hash("12345"); !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestNewArgon2RejectsWeakParameters(t *testing.T) {
	cfg := testConfig()
	cfg.Memory = 1024
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected weak memory to be rejected")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher, _ := NewArgon2(testConfig())
	for _, bad := range []string{
		"",
		"$argon2id$v=19$m=8192,t=1,p=1$bad",
		"$argon2id$v=18$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA",
		"$argon2id$v=19$m=16,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA",
	} {
		if _, err := hasher.Verify("secret1", bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestNeedsUpgrade(t *testing.T) {
	weak, _ := NewArgon2(testConfig())
	hash, err := weak.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	stronger := testConfig()
	stronger.Time = 2
	strong, _ := NewArgon2(stronger)

	if up, err := strong.NeedsUpgrade(hash); err != nil || !up {
		t.Fatalf("expected upgrade, got %v %v", up, err)
	}
	if up, err := weak.NeedsUpgrade(hash); err != nil || up {
		t.Fatalf("expected no upgrade, got %v %v", up, err)
	}
}

func TestMultiVerifiesBcryptAndArgon2(t *testing.T) {
	primary, _ := NewArgon2(testConfig())
	legacy, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	multi, err := NewMulti(primary, legacy)
	if err != nil {
		t.Fatalf("NewMulti error: %v", err)
	}

	old, err := legacy.Hash("secret1")
	if err != nil {
		t.Fatalf("bcrypt hash: %v", err)
	}
	if ok, err := multi.Verify("secret1", old); err != nil || !ok {
		t.Fatalf("expected bcrypt hash to verify, got %v %v", ok, err)
	}
	if ok, _ := multi.Verify("wrong!!", old); ok {
		t.Fatal("expected wrong password to fail for bcrypt hash")
	}
	if !multi.NeedsRehash(old) {
		t.Fatal("expected bcrypt hash to need rehash")
	}

	fresh, err := multi.Hash("secret1")
	if err != nil {
		t.Fatalf("multi hash: %v", err)
	}
	if !strings.HasPrefix(fresh, "$argon2id$") {
		t.Fatalf("expected argon2id for new hashes, got %s", fresh)
	}
	if ok, err := multi.Verify("secret1", fresh); err != nil || !ok {
		t.Fatalf("expected argon2 hash to verify, got %v %v", ok, err)
	}
	if multi.NeedsRehash(fresh) {
		t.Fatal("fresh hash should not need rehash")
	}
}
