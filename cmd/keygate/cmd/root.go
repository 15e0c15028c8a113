// Package cmd provides the CLI commands for keygate.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mylifeisrpg/keygate/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "keygate",
	Short: "keygate - API key authentication service",
	Long: `keygate issues API keys to registered users and authenticates requests
that present them in the X-API-KEY header.

Quick start:
  1. Create a config file: keygate.yaml (optional)
  2. Run: keygate start

Configuration:
  Config is loaded from keygate.yaml in the current directory,
  $HOME/.keygate/, or /etc/keygate/.

  Environment variables can override config values with the KEYGATE_ prefix.
  Example: KEYGATE_SERVER_HTTP_ADDR=:9090

Commands:
  start          Start the HTTP server
  stop           Stop the running server
  db             Manage database migrations
  gen-key        Generate a new API key
  hash-password  Hash a password read from stdin
  config show    Print the effective configuration
  version        Print version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./keygate.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
