package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// runMigrations runs all Bun migrations
func (b *BunDB) runMigrations(ctx context.Context) error {
	// Create a simple migrations tracking table
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if isPostgres(b.db) {
		idColumn = "id SERIAL PRIMARY KEY"
	}
	_, err := b.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS bun_schema_migrations (
			%s,
			version TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, idColumn))
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Check which migrations have been applied
	type AppliedMigration struct {
		bun.BaseModel `bun:"table:bun_schema_migrations"`
		Version       string `bun:"version"`
	}
	var applied []AppliedMigration
	err = b.db.NewSelect().
		Model(&applied).
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to check applied migrations: %w", err)
	}

	appliedMap := make(map[string]bool)
	for _, m := range applied {
		appliedMap[m.Version] = true
	}

	// Run migrations in order
	migrations := []struct {
		version string
		name    string
		up      func(context.Context, *bun.DB) error
	}{
		{"001", "create_render_records", init001CreateRenderRecords},
	}

	for _, m := range migrations {
		if appliedMap[m.version] {
			continue
		}

		Logger.Info("Running migration", "version", m.version, "name", m.name)
		if err := m.up(ctx, b.db); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", m.version, err)
		}

		// Mark as applied
		_, err = b.db.NewInsert().
			Model(&AppliedMigration{Version: m.version}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark migration %s as applied: %w", m.version, err)
		}
	}

	Logger.Info("All migrations completed successfully")
	return nil
}

func isPostgres(db *bun.DB) bool {
	return db.Dialect().Name() == dialect.PG
}

// Migration 001: Create the render log
func init001CreateRenderRecords(ctx context.Context, db *bun.DB) error {
	Logger.Info("Running migration 001: Create render log")

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS render_records (
			id TEXT PRIMARY KEY,
			page_index INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			document TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create render_records table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_render_records_page ON render_records(page_index)",
		"CREATE INDEX IF NOT EXISTS idx_render_records_status ON render_records(status)",
		"CREATE INDEX IF NOT EXISTS idx_render_records_created_at ON render_records(created_at DESC)",
	}

	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	Logger.Info("Migration 001 completed successfully")
	return nil
}
