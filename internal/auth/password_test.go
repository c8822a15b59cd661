package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	ps := NewPasswordServiceForTest(bcrypt.MinCost)

	hash, err := ps.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("Hash() returned the plaintext")
	}

	if err := ps.Verify(hash, "correct horse battery staple"); err != nil {
		t.Errorf("Verify() with correct password error = %v", err)
	}

	if err := ps.Verify(hash, "wrong password"); err == nil {
		t.Error("Verify() with wrong password returned nil, want error")
	}
}

func TestHashSamePasswordTwice(t *testing.T) {
	ps := NewPasswordServiceForTest(bcrypt.MinCost)

	h1, err := ps.Hash("secret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := ps.Hash("secret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// Per-password salt: identical inputs must produce distinct hashes.
	if h1 == h2 {
		t.Error("two hashes of the same password are identical")
	}
}

func TestHashRejectsOverlongPassword(t *testing.T) {
	ps := NewPasswordServiceForTest(bcrypt.MinCost)

	if _, err := ps.Hash(strings.Repeat("x", 73)); err == nil {
		t.Error("Hash() accepted a 73-byte password, want error")
	}

	// 72 bytes exactly is still fine.
	if _, err := ps.Hash(strings.Repeat("x", 72)); err != nil {
		t.Errorf("Hash() rejected a 72-byte password: %v", err)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	ps := NewPasswordServiceForTest(bcrypt.MinCost)

	if err := ps.Verify("not-a-bcrypt-hash", "secret"); err == nil {
		t.Error("Verify() with malformed hash returned nil, want error")
	}
}
