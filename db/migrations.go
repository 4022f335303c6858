package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies all pending migrations. Safe to call on every start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	slog.Info("running database migrations")

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect(driver)); err != nil {
		return fmt.Errorf("setting migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations complete")
	return nil
}

// MigrationStatus logs the applied state of every migration.
func MigrationStatus(ctx context.Context, db *sql.DB, driver string) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect(driver)); err != nil {
		return fmt.Errorf("setting migration dialect: %w", err)
	}
	return goose.StatusContext(ctx, db, "migrations")
}

func dialect(driver string) string {
	if driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}
