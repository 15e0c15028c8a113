package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnknownHashType is returned when a stored hash has an unrecognized format.
var ErrUnknownHashType = errors.New("unknown hash type")

// Hash algorithm names accepted by NewPasswordHasher.
const (
	HashArgon2id = "argon2id"
	HashBcrypt   = "bcrypt"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	// Hash returns an encoded hash of the password.
	Hash(password string) (string, error)
	// Verify reports whether the password matches the encoded hash.
	// A mismatch is (false, nil); a malformed hash is an error.
	Verify(password, encoded string) (bool, error)
}

// NewPasswordHasher returns the hasher for the algorithm name.
// Verification of either format works regardless of which one hashes.
func NewPasswordHasher(algorithm string) (PasswordHasher, error) {
	switch strings.ToLower(algorithm) {
	case "", HashArgon2id:
		return Argon2idHasher{Params: argon2idParams}, nil
	case HashBcrypt:
		return BcryptHasher{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unsupported password hash %q", algorithm)
	}
}

// argon2idParams are the OWASP minimum parameters for Argon2id.
var argon2idParams = &argon2id.Params{
	Memory:      47 * 1024, // 47 MiB (OWASP minimum: 46 MiB)
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Argon2idHasher produces PHC-format Argon2id hashes.
type Argon2idHasher struct {
	Params *argon2id.Params
}

// Hash returns $argon2id$v=19$m=...,t=...,p=...$<salt>$<hash>.
func (h Argon2idHasher) Hash(password string) (string, error) {
	params := h.Params
	if params == nil {
		params = argon2idParams
	}
	return argon2id.CreateHash(password, params)
}

// Verify checks the password against either hash format.
func (h Argon2idHasher) Verify(password, encoded string) (bool, error) {
	return VerifyPassword(password, encoded)
}

// BcryptHasher produces bcrypt hashes.
type BcryptHasher struct {
	Cost int
}

// Hash returns a $2a$ bcrypt hash of the pre-hashed password.
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword(bcryptInput(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(b), nil
}

// Verify checks the password against either hash format.
func (h BcryptHasher) Verify(password, encoded string) (bool, error) {
	return VerifyPassword(password, encoded)
}

// bcryptInput reduces a password to the 44-byte base64 SHA-256 digest.
// bcrypt rejects inputs over 72 bytes and passwords may be up to 255.
func bcryptInput(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// DetectHashType identifies the algorithm of a stored hash:
// "argon2id", "bcrypt" or "unknown".
func DetectHashType(encoded string) string {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return HashArgon2id
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return HashBcrypt
	default:
		return "unknown"
	}
}

// VerifyPassword verifies a password against an Argon2id or bcrypt hash.
// Returns (false, ErrUnknownHashType) for unrecognized formats.
func VerifyPassword(password, encoded string) (bool, error) {
	switch DetectHashType(encoded) {
	case HashArgon2id:
		return safeArgon2idCompare(password, encoded)
	case HashBcrypt:
		err := bcrypt.CompareHashAndPassword([]byte(encoded), bcryptInput(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("bcrypt compare: %w", err)
		}
		return true, nil
	default:
		return false, ErrUnknownHashType
	}
}

// safeArgon2idCompare converts panics from malformed hash parameters
// (t=0, p=0) into errors so verification never panics.
func safeArgon2idCompare(password, encoded string) (match bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			match = false
			err = fmt.Errorf("invalid argon2id hash parameters: %v", r)
		}
	}()
	return argon2id.ComparePasswordAndHash(password, encoded)
}
