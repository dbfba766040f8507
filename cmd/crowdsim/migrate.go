package main

import (
	"context"
	"fmt"

	"github.com/crowdnav/crowdsim/internal/config"
	"github.com/crowdnav/crowdsim/internal/persist"
)

func migrate(ctx context.Context, cfg *config.Config) error {
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is not set")
	}
	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	version, err := persist.RunMigrations(ctx, db.Pool, log)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK(fmt.Sprintf("Migrations applied, schema version %d", version))
	return nil
}
