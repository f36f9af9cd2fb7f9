package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/heartmarshall/vocab-harvester/migrations"
)

// Migrate applies all pending goose migrations to the database at dsn and
// returns the number of migrations applied.
func Migrate(ctx context.Context, dsn string) (int, error) {
	// goose requires *sql.DB.
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return 0, fmt.Errorf("sql.Open: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return 0, fmt.Errorf("db ping: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.Postgres())
	if err != nil {
		return 0, fmt.Errorf("goose new provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("goose up: %w", err)
	}
	return len(results), nil
}
