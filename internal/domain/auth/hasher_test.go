package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashers(t *testing.T) {
	for _, algo := range []string{HashArgon2id, HashBcrypt} {
		t.Run(algo, func(t *testing.T) {
			h, err := NewPasswordHasher(algo)
			if err != nil {
				t.Fatalf("NewPasswordHasher(%q) unexpected error: %v", algo, err)
			}
			if algo == HashBcrypt {
				h = BcryptHasher{Cost: bcrypt.MinCost}
			}

			encoded, err := h.Hash("SecurePass123!")
			if err != nil {
				t.Fatalf("Hash() unexpected error: %v", err)
			}
			if DetectHashType(encoded) != algo {
				t.Errorf("DetectHashType() = %q, want %q", DetectHashType(encoded), algo)
			}

			ok, err := h.Verify("SecurePass123!", encoded)
			if err != nil || !ok {
				t.Errorf("Verify(correct) = %v, %v", ok, err)
			}
			ok, err = h.Verify("WrongPass123!", encoded)
			if err != nil || ok {
				t.Errorf("Verify(wrong) = %v, %v", ok, err)
			}
		})
	}
}

func TestBcryptHasher_LongPasswords(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	long := "Aa1!" + strings.Repeat("b", 251)
	// Same first 72 bytes; bcrypt alone would not tell these apart.
	sibling := long[:72] + strings.Repeat("c", 183)

	encoded, err := h.Hash(long)
	if err != nil {
		t.Fatalf("Hash(255 chars) unexpected error: %v", err)
	}
	if ok, err := h.Verify(long, encoded); err != nil || !ok {
		t.Errorf("Verify(correct) = %v, %v", ok, err)
	}
	if ok, err := h.Verify(sibling, encoded); err != nil || ok {
		t.Errorf("Verify(same 72-byte prefix) = %v, %v; want false, nil", ok, err)
	}
}

func TestNewPasswordHasher_Unsupported(t *testing.T) {
	if _, err := NewPasswordHasher("md5"); err == nil {
		t.Error("NewPasswordHasher(md5) = nil error")
	}
}

func TestVerifyPassword_UnknownHash(t *testing.T) {
	_, err := VerifyPassword("x", "plaintext")
	if !errors.Is(err, ErrUnknownHashType) {
		t.Errorf("VerifyPassword() error = %v, want ErrUnknownHashType", err)
	}
}

func TestVerifyPassword_MalformedArgon2idDoesNotPanic(t *testing.T) {
	// t=0 makes the argon2 library panic.
	bad := "$argon2id$v=19$m=65536,t=0,p=1$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNoaGFzaA"
	ok, err := VerifyPassword("x", bad)
	if ok {
		t.Error("VerifyPassword() = true for malformed hash")
	}
	if err == nil || !strings.Contains(err.Error(), "argon2id") {
		t.Errorf("VerifyPassword() error = %v, want argon2id parameter error", err)
	}
}
