// Package sqlite implements the vocabulary and pending stores on a local
// SQLite file using the pure-Go modernc driver. It mirrors the PostgreSQL
// adapter method for method so either can back the services.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/heartmarshall/vocab-harvester/migrations"
)

// _txlock=immediate: every BEGIN takes the write lock. A deferred
// transaction that reads before writing gets SQLITE_BUSY on upgrade
// instead of waiting out busy_timeout.
const dsnParams = "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)&_txlock=immediate"

// timeLayout sorts lexicographically in the same order as the instants it
// encodes, provided every value is UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Open opens (creating if needed) the database file at path. The returned
// pool holds a single connection: SQLite allows one writer. Other processes
// opening the same file queue on busy_timeout.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return db, nil
}

// Migrate applies all pending goose migrations to the file at path and
// returns the number applied. It uses its own connection and closes it.
func Migrate(ctx context.Context, path string) (int, error) {
	db, err := open(path)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.SQLite())
	if err != nil {
		return 0, fmt.Errorf("goose new provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("goose up: %w", err)
	}
	return len(results), nil
}

func open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}
