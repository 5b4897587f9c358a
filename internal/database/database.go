// Package database opens the blog's datastore and keeps its schema current.
//
// Two drivers are supported:
//
//	sqlite   - modernc.org/sqlite, a pure Go build of SQLite (no cgo). The default.
//	postgres - github.com/lib/pq, for deployments that already run Postgres.
//
// Both are wrapped in *sqlx.DB so the stores can scan rows straight into
// structs and use Rebind to write one query for both placeholder styles.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/sakif/blog/internal/config"
)

//go:embed migrations
var migrations embed.FS

// Open connects to the datastore and verifies the connection.
//
// SQLite gets exactly one connection. SQLite serialises writers anyway, and
// a single connection is the only way ":memory:" databases survive between
// queries (every new connection would open a fresh, empty database).
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case config.DriverSQLite:
		return openSQLite(ctx, dsn)
	case config.DriverPostgres:
		return openPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}
}

func openSQLite(ctx context.Context, dsn string) (*sqlx.DB, error) {
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("database: creating data directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: pinging sqlite: %w", err)
	}

	// WAL lets readers proceed while a write is in flight. Foreign keys are
	// off by default in SQLite and the cascades on posts depend on them.
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("database: %s: %w", pragma, err)
		}
	}
	return db, nil
}

func openPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: connecting to postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Migrate applies every pending migration for driver. A database that is
// already current is not an error.
//
// The migrate instance is left open: closing it would also close db.
func Migrate(db *sqlx.DB, driver string) error {
	src, err := iofs.New(migrations, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("database: loading %s migrations: %w", driver, err)
	}

	var m *migrate.Migrate
	switch driver {
	case config.DriverSQLite:
		drv, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
		if err != nil {
			return fmt.Errorf("database: preparing sqlite migrations: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite", drv)
		if err != nil {
			return fmt.Errorf("database: creating migrator: %w", err)
		}
	case config.DriverPostgres:
		drv, err := migratepostgres.WithInstance(db.DB, &migratepostgres.Config{})
		if err != nil {
			return fmt.Errorf("database: preparing postgres migrations: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "postgres", drv)
		if err != nil {
			return fmt.Errorf("database: creating migrator: %w", err)
		}
	default:
		return fmt.Errorf("database: unsupported driver %q", driver)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("database: applying migrations: %w", err)
	}
	return nil
}

// OpenAndMigrate is Open followed by Migrate, closing the database if the
// migrations fail.
func OpenAndMigrate(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, driver); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
