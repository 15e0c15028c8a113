package validation

import (
	"regexp"
	"strings"
	"unicode"
)

// Field messages returned to clients.
const (
	MsgUsernameRequired = "Username is required"
	MsgUsernameSize     = "Username must be between 3 and 50 characters"
	MsgUsernamePattern  = "Username can only contain letters, numbers, and underscores"
	MsgPasswordRequired = "Password is required"
	MsgPasswordSize     = "Password must be between 8 and 255 characters"
	MsgPasswordStrength = "Password must contain at least one uppercase letter, one lowercase letter, one digit, and one special character"
)

// passwordSpecials are the accepted special characters; at least one is required.
const passwordSpecials = "@$!%*?&"

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// IsValidUsername reports whether s contains only letters, digits and underscores.
func IsValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// IsStrongPassword reports whether s has at least one upper-case letter,
// lower-case letter, digit and special character from @$!%*?&, and no
// characters outside those classes.
func IsStrongPassword(s string) bool {
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case r > unicode.MaxASCII:
			return false
		case 'A' <= r && r <= 'Z':
			upper = true
		case 'a' <= r && r <= 'z':
			lower = true
		case '0' <= r && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return upper && lower && digit && special
}

// fieldMessages maps field and failed rule to the client message.
var fieldMessages = map[string]map[string]string{
	"username": {
		"notblank":       MsgUsernameRequired,
		"min":            MsgUsernameSize,
		"max":            MsgUsernameSize,
		"username_chars": MsgUsernamePattern,
	},
	"password": {
		"notblank":        MsgPasswordRequired,
		"min":             MsgPasswordSize,
		"max":             MsgPasswordSize,
		"strong_password": MsgPasswordStrength,
	},
}
