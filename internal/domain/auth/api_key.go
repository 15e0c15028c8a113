package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

const (
	// APIKeyPrefix starts every generated key.
	APIKeyPrefix = "ak_"
	// apiKeyRandomBytes is the entropy of a generated key (32 hex chars).
	apiKeyRandomBytes = 16
	// maskVisibleChars is how many leading characters MaskAPIKey keeps.
	maskVisibleChars = 6
)

var apiKeyPattern = regexp.MustCompile(`^ak_[0-9a-f]{32}$`)

// GenerateAPIKey returns a new key of the form ak_ followed by 32 lowercase
// hex characters drawn from crypto/rand.
func GenerateAPIKey() (string, error) {
	b := make([]byte, apiKeyRandomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return APIKeyPrefix + hex.EncodeToString(b), nil
}

// IsWellFormedAPIKey reports whether s has the generated key format.
// Static keys from configuration are not required to match it.
func IsWellFormedAPIKey(s string) bool {
	return apiKeyPattern.MatchString(s)
}

// MaskAPIKey hides all but the first six characters of a key for logging.
// Keys of six characters or fewer are masked entirely.
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= maskVisibleChars {
		return strings.Repeat("*", len(key))
	}
	return key[:maskVisibleChars] + strings.Repeat("*", len(key)-maskVisibleChars)
}
