package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/mylifeisrpg/keygate/internal/adapter/outbound/sqlstore"
	"github.com/mylifeisrpg/keygate/internal/config"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management commands",
	Long: `Commands for managing the credential store schema.

The database is taken from database.url (KEYGATE_DATABASE_URL). These
commands do not apply to the in-memory store.`,
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize migration tables",
	Long:  `Creates the migration tracking tables in the database. Run this once during initial setup.`,
	RunE: withDatabase(func(ctx context.Context, cmd *cobra.Command, db *bun.DB) error {
		if err := sqlstore.NewMigrator(db).Init(ctx); err != nil {
			return fmt.Errorf("failed to initialize migrator: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migration tables initialized successfully")
		return nil
	}),
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Applies all pending migrations to the database with locking to prevent concurrent migrations.`,
	RunE: withDatabase(func(ctx context.Context, cmd *cobra.Command, db *bun.DB) error {
		group, err := sqlstore.Migrate(ctx, db)
		if err != nil {
			return err
		}
		if group.ID == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No new migrations to apply")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Applied migration group %d\n", group.ID)
		}
		return nil
	}),
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Rollback last migration group",
	Long:  `Rolls back the most recently applied migration group with locking to prevent concurrent operations.`,
	RunE: withDatabase(func(ctx context.Context, cmd *cobra.Command, db *bun.DB) error {
		group, err := sqlstore.Rollback(ctx, db)
		if err != nil {
			return err
		}
		if group.ID == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No migrations to rollback")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back migration group %d\n", group.ID)
		}
		return nil
	}),
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long:  `Displays applied and pending migrations.`,
	RunE: withDatabase(func(ctx context.Context, cmd *cobra.Command, db *bun.DB) error {
		ms, err := sqlstore.NewMigrator(db).MigrationsWithStatus(ctx)
		if err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Migrations:")
		for _, m := range ms {
			status := "pending"
			if m.GroupID > 0 {
				status = fmt.Sprintf("applied (group %d)", m.GroupID)
			}
			fmt.Fprintf(out, "  %s: %s\n", m.String(), status)
		}
		return nil
	}),
}

var dbUnlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Force release migration lock",
	Long:  `Force releases the migration lock. Use this if a migration crashed while holding the lock.`,
	RunE: withDatabase(func(ctx context.Context, cmd *cobra.Command, db *bun.DB) error {
		if err := sqlstore.NewMigrator(db).Unlock(ctx); err != nil {
			return fmt.Errorf("failed to release migration lock: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migration lock released successfully")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbRollbackCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbUnlockCmd)
}

var errMemoryStore = errors.New("database.url is memory://, there is no schema to manage")

// withDatabase loads the configuration, opens the configured database and
// runs fn against it.
func withDatabase(fn func(ctx context.Context, cmd *cobra.Command, db *bun.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if cfg.UsesMemoryStore() {
			return errMemoryStore
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		db, err := sqlstore.Open(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer sqlstore.Close(db)

		return fn(ctx, cmd, db)
	}
}
