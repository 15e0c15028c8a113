package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	httpadapter "github.com/mylifeisrpg/keygate/internal/adapter/inbound/http"
	"github.com/mylifeisrpg/keygate/internal/adapter/outbound/memory"
	"github.com/mylifeisrpg/keygate/internal/adapter/outbound/sqlstore"
	"github.com/mylifeisrpg/keygate/internal/config"
	"github.com/mylifeisrpg/keygate/internal/domain/auth"
	"github.com/mylifeisrpg/keygate/internal/domain/ratelimit"
	"github.com/mylifeisrpg/keygate/internal/service"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the HTTP server",
	Long: `Start the keygate HTTP server.

The credential store is selected by database.url:
  memory://             in-memory store, lost on restart
  postgres://...        PostgreSQL
  anything else         SQLite path or file: URI (default: file:keygate.db)

The key registry is selected by auth.provider:
  database (default)    keys issued by /auth/register
  static                keys from auth.api_keys.admin / auth.api_keys.users

Examples:
  # Start with config file settings
  keygate start

  # Start in development mode with an in-memory store
  KEYGATE_DATABASE_URL=memory:// keygate start --dev

  # Start with a specific config file
  keygate --config /path/to/keygate.yaml start`,
	RunE: runStart,
}

var devMode bool

func init() {
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (debug logging, dev admin key)")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	// Load without validation so CLI flags can override first.
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if devMode {
		cfg.DevMode = true
	}
	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// stop() restores default signal handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	go func() {
		<-ctx.Done()
		stop()
	}()

	logger := newLogger(cfg, os.Stderr)
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}
	if cfg.DevMode {
		logger.Warn("development mode enabled, do not use in production")
	}

	pidPath := pidFilePath()
	if err := writePIDFile(pidPath); err != nil {
		logger.Warn("failed to write PID file", "path", pidPath, "error", err)
	} else {
		defer os.Remove(pidPath)
	}

	if err := run(ctx, cfg, logger); err != nil {
		return err
	}

	logger.Info("keygate stopped")
	return nil
}

// run wires the store, identity service, registry, rate limiter and HTTP
// server, then blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, db, err := openCredentialStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sqlstore.Close(db); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()

	hasher, err := auth.NewPasswordHasher(cfg.Auth.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to create password hasher: %w", err)
	}
	identity := service.NewIdentityService(store, hasher, logger)

	registry := newKeyRegistry(cfg, store, logger)
	logger.Info("authentication configured", "provider", registry.Strategy(), "password_hash", cfg.Auth.PasswordHash)

	// A nil *sqlstore.CredentialStore must not become a non-nil Pinger.
	var pinger httpadapter.Pinger
	if s, ok := store.(*sqlstore.CredentialStore); ok {
		pinger = s
	}

	opts := []httpadapter.Option{
		httpadapter.WithAddr(cfg.Server.HTTPAddr),
		httpadapter.WithTimeouts(
			config.Duration(cfg.Server.ReadTimeout, 10*time.Second),
			config.Duration(cfg.Server.WriteTimeout, 30*time.Second),
			config.Duration(cfg.Server.ShutdownTimeout, 10*time.Second),
		),
		httpadapter.WithAllowedOrigins(cfg.Server.CORSAllowedOrigins),
		httpadapter.WithServerPublicPaths(cfg.Auth.PublicPaths),
		httpadapter.WithApplication(cfg.Application.Name, Version),
		httpadapter.WithLogger(logger),
	}

	var limiter *memory.RateLimiter
	if cfg.RateLimit.Enabled {
		window := config.Duration(cfg.RateLimit.Window, time.Minute)
		limiter = memory.NewRateLimiterWithSweep(config.Duration(cfg.RateLimit.CleanupInterval, 5*time.Minute), window)
		limiter.Start(ctx)
		defer limiter.Stop()

		policy := ratelimit.Policy{Requests: cfg.RateLimit.AuthRequests, Window: window}
		opts = append(opts, httpadapter.WithRateLimit(limiter, policy))
		logger.Info("rate limiting enabled", "requests", policy.Requests, "window", policy.Window)
	}
	opts = append(opts, httpadapter.WithHealthChecker(
		httpadapter.NewHealthChecker(cfg.Application.Name, Version, pinger, limiter),
	))

	server := httpadapter.NewServer(identity, registry, opts...)
	printBanner(os.Stderr, Version, cfg)
	return server.Start(ctx)
}

// openCredentialStore returns the configured store. db is nil for the
// in-memory store.
func openCredentialStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (auth.CredentialStore, *bun.DB, error) {
	if cfg.UsesMemoryStore() {
		logger.Info("using in-memory credential store")
		return memory.NewCredentialStore(), nil, nil
	}

	db, err := sqlstore.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("connected to database", "type", sqlstore.DetectDatabaseType(cfg.Database.URL))

	if cfg.Database.AutoMigrate {
		group, err := sqlstore.Migrate(ctx, db)
		if err != nil {
			_ = sqlstore.Close(db)
			return nil, nil, err
		}
		if group.ID != 0 {
			logger.Info("applied migrations", "group", group.ID)
		}
	}
	return sqlstore.NewCredentialStore(db), db, nil
}

// newKeyRegistry builds the registry selected by auth.provider.
func newKeyRegistry(cfg *config.Config, store auth.CredentialStore, logger *slog.Logger) auth.KeyRegistry {
	if cfg.Auth.Provider == config.ProviderStatic {
		entries := auth.ParseStaticKeys(cfg.Auth.APIKeys.Admin, cfg.Auth.APIKeys.Users, logger)
		return auth.NewStaticKeyRegistry(entries, logger)
	}
	return auth.NewStoreKeyRegistry(store, logger)
}

// newLogger builds the process logger from server.log_level and
// server.log_format. DevMode always forces debug.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Server.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// printBanner prints a short startup summary.
func printBanner(w io.Writer, version string, cfg *config.Config) {
	baseURL := "http://" + cfg.Server.HTTPAddr
	if strings.HasPrefix(cfg.Server.HTTPAddr, ":") {
		baseURL = "http://localhost" + cfg.Server.HTTPAddr
	}

	store := cfg.Database.URL
	if !cfg.UsesMemoryStore() {
		store = string(sqlstore.DetectDatabaseType(cfg.Database.URL))
	}
	mode := "production"
	if cfg.DevMode {
		mode = "development"
	}

	fmt.Fprintf(w, "\n  keygate %s\n", version)
	fmt.Fprintf(w, "  %-10s %s\n", "Listen:", baseURL)
	fmt.Fprintf(w, "  %-10s %s\n", "Provider:", cfg.Auth.Provider)
	fmt.Fprintf(w, "  %-10s %s\n", "Store:", store)
	fmt.Fprintf(w, "  %-10s %s\n\n", "Mode:", mode)
}

// pidFilePath returns the standard location for the keygate PID file.
func pidFilePath() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".keygate", "server.pid")
	}
	return filepath.Join(os.TempDir(), "keygate-server.pid")
}

// writePIDFile writes the current process PID to path, creating parent
// directories as needed.
func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644)
}
