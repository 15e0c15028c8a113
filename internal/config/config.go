// Package config provides configuration types for keygate.
//
// Configuration comes from keygate.yaml and KEYGATE_* environment
// variables. Static API keys are plain delimited strings so they can be
// injected through a single environment variable:
//
//	KEYGATE_AUTH_API_KEYS_ADMIN="key:1:admin:ADMIN,USER"
//	KEYGATE_AUTH_API_KEYS_USERS="key2:2:alice:USER|key3:3:bob:USER"
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration for keygate.
type Config struct {
	// Server configures the HTTP listener and logging.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Application holds naming used in health and welcome responses.
	Application ApplicationConfig `yaml:"application" mapstructure:"application"`

	// Auth selects the key registry and configures authentication.
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// RateLimit throttles the public /auth endpoints per client IP.
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`

	// Database configures the credential store.
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// DevMode enables debug logging and a development admin key when no
	// static keys are configured.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// HTTPAddr is the listen address. Defaults to "127.0.0.1:8080".
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`

	// LogLevel is one of debug, info, warn, error. DevMode forces debug.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format" mapstructure:"log_format" validate:"omitempty,oneof=text json"`

	// ReadTimeout, WriteTimeout and ShutdownTimeout are Go durations ("10s").
	ReadTimeout     string `yaml:"read_timeout" mapstructure:"read_timeout" validate:"omitempty,duration"`
	WriteTimeout    string `yaml:"write_timeout" mapstructure:"write_timeout" validate:"omitempty,duration"`
	ShutdownTimeout string `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"omitempty,duration"`

	// CORSAllowedOrigins enables CORS for the listed origins. Empty disables CORS.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" mapstructure:"cors_allowed_origins"`
}

// ApplicationConfig names the service.
type ApplicationConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
}

// Auth provider names.
const (
	ProviderDatabase = "database"
	ProviderStatic   = "static"
)

// AuthConfig configures API key authentication.
type AuthConfig struct {
	// Provider selects the key registry: "database" (default) or "static".
	Provider string `yaml:"provider" mapstructure:"provider" validate:"omitempty,auth_provider"`

	// PasswordHash selects the algorithm for new password hashes.
	PasswordHash string `yaml:"password_hash" mapstructure:"password_hash" validate:"omitempty,oneof=argon2id bcrypt"`

	// PublicPaths are exempt from API key resolution. A path matches an
	// entry when it is equal to it or starts with entry + "/".
	PublicPaths []string `yaml:"public_paths" mapstructure:"public_paths" validate:"omitempty,dive,public_path"`

	// APIKeys holds the static key lists.
	APIKeys StaticKeysConfig `yaml:"api_keys" mapstructure:"api_keys"`
}

// StaticKeysConfig holds |-separated key:userId:username:ROLES entries.
type StaticKeysConfig struct {
	Admin string `yaml:"admin" mapstructure:"admin"`
	Users string `yaml:"users" mapstructure:"users"`
}

// RateLimitConfig throttles /auth/* per client IP.
type RateLimitConfig struct {
	// Enabled defaults to true.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// AuthRequests is the number of /auth requests allowed per Window.
	AuthRequests int `yaml:"auth_requests" mapstructure:"auth_requests" validate:"omitempty,min=1"`
	// Window is a Go duration. Defaults to "1m".
	Window string `yaml:"window" mapstructure:"window" validate:"omitempty,duration"`
	// CleanupInterval is how often idle limiter entries are swept.
	CleanupInterval string `yaml:"cleanup_interval" mapstructure:"cleanup_interval" validate:"omitempty,duration"`
}

// DatabaseConfig configures the credential store.
type DatabaseConfig struct {
	// URL is a postgres:// DSN, a SQLite path or file: URI, or "memory://"
	// for the in-memory store.
	URL string `yaml:"url" mapstructure:"url" validate:"omitempty,database_url"`
	// AutoMigrate applies pending migrations on start. Defaults to true.
	AutoMigrate bool `yaml:"auto_migrate" mapstructure:"auto_migrate"`
}

// MemoryDatabaseURL selects the in-memory credential store.
const MemoryDatabaseURL = "memory://"

// DefaultPublicPaths are exempt from API key resolution unless configured otherwise.
var DefaultPublicPaths = []string{"/", "/health", "/actuator/health", "/metrics"}

// devAdminKey is the static admin key installed by SetDevDefaults.
const devAdminKey = "dev-admin-key:0:dev-admin:ADMIN,USER"

// SetDevDefaults applies development defaults. No-op unless DevMode is set.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}
	c.Server.LogLevel = "debug"
	if c.Auth.APIKeys.Admin == "" && c.Auth.APIKeys.Users == "" {
		c.Auth.APIKeys.Admin = devAdminKey
	}
}

// SetDefaults applies default values to unset fields.
func (c *Config) SetDefaults() {
	// Bind to localhost only unless configured otherwise.
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.LogFormat == "" {
		c.Server.LogFormat = "text"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "30s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}

	if c.Application.Name == "" {
		c.Application.Name = "keygate"
	}

	if c.Auth.Provider == "" {
		c.Auth.Provider = ProviderDatabase
	}
	if c.Auth.PasswordHash == "" {
		c.Auth.PasswordHash = "argon2id"
	}
	if len(c.Auth.PublicPaths) == 0 {
		c.Auth.PublicPaths = append([]string(nil), DefaultPublicPaths...)
	}

	// viper.IsSet distinguishes "not set" from "explicitly false".
	if !viper.IsSet("rate_limit.enabled") {
		c.RateLimit.Enabled = true
	}
	if c.RateLimit.AuthRequests == 0 {
		c.RateLimit.AuthRequests = 60
	}
	if c.RateLimit.Window == "" {
		c.RateLimit.Window = "1m"
	}
	if c.RateLimit.CleanupInterval == "" {
		c.RateLimit.CleanupInterval = "5m"
	}

	if c.Database.URL == "" {
		c.Database.URL = "file:keygate.db"
	}
	if !viper.IsSet("database.auto_migrate") {
		c.Database.AutoMigrate = true
	}
}

// Duration parses a duration field that passed validation. It returns
// fallback for an empty or unparsable value.
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// UsesMemoryStore reports whether the in-memory credential store is selected.
func (c *Config) UsesMemoryStore() bool {
	return c.Database.URL == MemoryDatabaseURL
}
