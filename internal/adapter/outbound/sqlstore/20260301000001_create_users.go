package sqlstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260301000001, down_20260301000001)
}

// up_20260301000001 creates the users table. The UNIQUE constraints on
// username and api_key are what settle concurrent registrations.
func up_20260301000001(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*userModel)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func down_20260301000001(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().
		Model((*userModel)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop users table: %w", err)
	}
	return nil
}
