// Package bootstrap wires process-level dependencies shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-online/internal/config"
	"github.com/stemsi/exstem-online/internal/database"
	"github.com/stemsi/exstem-online/internal/repository"
	"github.com/stemsi/exstem-online/internal/repository/postgres"
	"github.com/stemsi/exstem-online/internal/repository/sqlite"
)

// OpenStore picks the persistence backend named by DB_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repository.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return postgres.New(pool), nil
	case "sqlite":
		db, err := database.NewSQLiteDB(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		store, err := sqlite.New(db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}
