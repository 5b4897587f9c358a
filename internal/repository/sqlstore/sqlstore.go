// Package sqlstore implements the repository interfaces on top of sqlx.
//
// The same queries run on SQLite and Postgres: every statement is written
// with ? placeholders and passed through Rebind, which rewrites them to $1,
// $2, ... when the underlying driver is lib/pq.
//
// NOT FOUND AND CONFLICTS:
// sql.ErrNoRows and "0 rows affected" become apperror.NotFound; a unique
// constraint violation becomes apperror.Conflict. Everything else is wrapped
// with a "sqlstore: <what>" prefix so the log line says where it failed.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/blog/internal/apperror"
)

// now is swapped in tests that need identical timestamps. Stored times are
// UTC so that SQLite, which keeps them as text, orders them correctly.
var now = func() time.Time { return time.Now().UTC() }

// withTx runs fn inside a transaction. The transaction is committed only if
// fn returns nil and is rolled back on every other path, panics included.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: committing transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a unique or primary key
// constraint failure from either supported driver.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	return false
}

// requireAffected turns "no rows touched" into NotFound.
func requireAffected(n int64, resource, id string) error {
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
