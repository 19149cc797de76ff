// Package database opens the relational store behind the relief repositories.
// Postgres is reached through the pgx database/sql driver; SQLite through the
// pure-Go modernc driver for single-node deployments and tests.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"relief/internal/platform/config"
)

// DB is a connection pool paired with the dialect its SQL is rendered in.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects to the configured store and verifies it answers.
func Open(ctx context.Context, cfg config.Database) (*DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg)
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.Database) (*DB, error) {
	sqlDB, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db := &DB{DB: sqlDB, Dialect: Postgres}
	if err := db.Health(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a SQLite file with foreign keys enforced. The pool holds a
// single connection, so every transaction is serialized.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	if !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	sqlDB, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	db := &DB{DB: sqlDB, Dialect: SQLite}
	if err := db.Health(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// sqliteDSN turns a path or file: URI into a DSN with foreign keys forced on.
// A caller's foreign_keys pragma is replaced; other parameters are kept, and
// busy_timeout is added when absent.
func sqliteDSN(path string) string {
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	base, query, _ := strings.Cut(path, "?")

	params := []string{"_pragma=foreign_keys(1)"}
	busy := false
	for _, p := range strings.Split(query, "&") {
		lower := strings.ToLower(p)
		switch {
		case p == "", strings.HasPrefix(lower, "_pragma=foreign_keys"):
			continue
		case strings.HasPrefix(lower, "_pragma=busy_timeout"):
			busy = true
		}
		params = append(params, p)
	}
	if !busy {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	return base + "?" + strings.Join(params, "&")
}

// Health pings the store and classifies the failure.
func (db *DB) Health(ctx context.Context) error {
	return Classify(db.PingContext(ctx))
}
