package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mylifeisrpg/keygate/internal/config"
	"github.com/mylifeisrpg/keygate/internal/domain/auth"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration keygate would start with, after defaults and
environment overrides, as YAML. Static API keys and database passwords are
masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		if file := config.ConfigFileUsed(); file != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n", file)
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(redactConfig(*cfg)); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// redactConfig returns a copy of cfg safe to print.
func redactConfig(cfg config.Config) config.Config {
	cfg.Auth.APIKeys.Admin = maskStaticKeys(cfg.Auth.APIKeys.Admin)
	cfg.Auth.APIKeys.Users = maskStaticKeys(cfg.Auth.APIKeys.Users)
	if u, err := url.Parse(cfg.Database.URL); err == nil && u.User != nil {
		cfg.Database.URL = u.Redacted()
	}
	return cfg
}

// maskStaticKeys masks the key field of every key:userId:username:roles entry.
func maskStaticKeys(raw string) string {
	if raw == "" {
		return ""
	}
	entries := strings.Split(raw, "|")
	for i, entry := range entries {
		key, rest, found := strings.Cut(strings.TrimSpace(entry), ":")
		masked := auth.MaskAPIKey(key)
		if found {
			masked += ":" + rest
		}
		entries[i] = masked
	}
	return strings.Join(entries, "|")
}
