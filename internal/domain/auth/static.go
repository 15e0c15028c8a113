package auth

import (
	"log/slog"
	"strconv"
	"strings"
)

const (
	staticEntrySeparator = "|"
	staticFieldSeparator = ":"
	staticRoleSeparator  = ","
	staticMinFields      = 4
)

// StaticKeyEntry is one configured key:userId:username:roles entry.
type StaticKeyEntry struct {
	APIKey   string
	UserID   int64
	Username string
	Roles    []Role
}

// ParseStaticKeys parses the admin and user key strings into entries.
// Each string is a |-separated list of key:userId:username:ROLE1,ROLE2
// entries. Malformed entries are logged and skipped, never fatal.
// Admin entries come first so a user entry with the same key wins.
func ParseStaticKeys(admin, users string, logger *slog.Logger) []StaticKeyEntry {
	if logger == nil {
		logger = slog.Default()
	}
	entries := parseStaticKeyList(admin, "admin", logger)
	return append(entries, parseStaticKeyList(users, "users", logger)...)
}

func parseStaticKeyList(raw, source string, logger *slog.Logger) []StaticKeyEntry {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var entries []StaticKeyEntry
	for i, item := range strings.Split(raw, staticEntrySeparator) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		entry, reason := parseStaticKeyEntry(item)
		if reason != "" {
			// The entry may contain a key; log only its masked form.
			logger.Warn("skipping malformed static api key entry",
				"source", source,
				"index", i,
				"entry", MaskAPIKey(item),
				"reason", reason,
			)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// parseStaticKeyEntry returns the entry or a non-empty reason it is malformed.
func parseStaticKeyEntry(item string) (StaticKeyEntry, string) {
	parts := strings.Split(item, staticFieldSeparator)
	if len(parts) < staticMinFields {
		return StaticKeyEntry{}, "expected key:userId:username:roles"
	}

	key := strings.TrimSpace(parts[0])
	if key == "" {
		return StaticKeyEntry{}, "empty api key"
	}
	id, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return StaticKeyEntry{}, "user id is not an integer"
	}
	username := strings.TrimSpace(parts[2])
	if username == "" {
		return StaticKeyEntry{}, "empty username"
	}

	// Fields after the role list are ignored.
	var roles []Role
	for _, r := range strings.Split(parts[3], staticRoleSeparator) {
		roles = append(roles, Role(r))
	}
	roles = NormalizeRoles(roles)
	if len(roles) == 0 {
		return StaticKeyEntry{}, "no roles"
	}

	return StaticKeyEntry{APIKey: key, UserID: id, Username: username, Roles: roles}, ""
}
