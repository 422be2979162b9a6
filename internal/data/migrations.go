package data

import (
	"context"
	"database/sql"

	"github.com/hellforge/tradepost/internal/migrate"
)

// RunMigrations applies the embedded schema migrations by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}
