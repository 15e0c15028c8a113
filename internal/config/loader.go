package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// configBaseName is the file name searched for, with a .yaml or .yml extension.
const configBaseName = "keygate"

// InitViper initializes Viper with the configuration file and environment variables.
// If configFile is empty, it searches for keygate.yaml/.yml in standard locations.
// The search requires an explicit YAML extension so the keygate binary itself
// is never picked up as a config file.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// ReadInConfig will return ConfigFileNotFoundError, which callers tolerate.
		viper.SetConfigName(configBaseName)
		viper.SetConfigType("yaml")
	}

	// KEYGATE_SERVER_HTTP_ADDR overrides server.http_addr.
	viper.SetEnvPrefix("KEYGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

func findConfigFile() string {
	home, _ := os.UserHomeDir()
	return findConfigFileInPaths([]string{
		".",
		filepath.Join(home, ".keygate"),
		"/etc/keygate",
	})
}

// findConfigFileInPaths returns the first keygate.yaml or keygate.yml found
// in paths, or "".
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, configBaseName+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds every scalar key so it can be set from the environment.
// AutomaticEnv alone does not see nested keys that are absent from the file.
func bindNestedEnvKeys() {
	for _, key := range []string{
		"server.http_addr",
		"server.log_level",
		"server.log_format",
		"server.read_timeout",
		"server.write_timeout",
		"server.shutdown_timeout",
		"server.cors_allowed_origins",

		"application.name",

		"auth.provider",
		"auth.password_hash",
		"auth.public_paths",
		"auth.api_keys.admin",
		"auth.api_keys.users",

		"rate_limit.enabled",
		"rate_limit.auth_requests",
		"rate_limit.window",
		"rate_limit.cleanup_interval",

		"database.url",
		"database.auto_migrate",

		"dev_mode",
	} {
		_ = viper.BindEnv(key)
	}
}

// LoadConfig reads the config file and environment, applies defaults and
// dev defaults, and validates the result.
func LoadConfig() (*Config, error) {
	cfg, err := LoadConfigRaw()
	if err != nil {
		return nil, err
	}

	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigRaw reads the configuration and applies defaults but neither
// dev defaults nor validation. Use it when CLI flags may still change DevMode.
func LoadConfigRaw() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No file: environment variables only.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// ConfigFileUsed returns the path of the loaded config file, or "" when
// running from environment variables only.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
