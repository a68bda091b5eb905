package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mattn/go-sqlite3"
)

//go:embed migrations/sqlite.sql
var sqliteSchema string

var pgPlaceholder = regexp.MustCompile(`\$(\d+)`)

// rebind turns $N placeholders into SQLite's ?N form.
func rebind(query string) string {
	return pgPlaceholder.ReplaceAllString(query, "?$1")
}

type sqlQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type sqlConn struct {
	q sqlQuerier
}

type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() { _ = r.Rows.Close() }

func (c sqlConn) queryRow(ctx context.Context, query string, args ...any) rowScanner {
	return c.q.QueryRowContext(ctx, rebind(query), args...)
}

func (c sqlConn) query(ctx context.Context, query string, args ...any) (rowIter, error) {
	rows, err := c.q.QueryContext(ctx, rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (c sqlConn) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.q.ExecContext(ctx, rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type sqliteDB struct {
	sqlConn
	db *sql.DB
}

// openSQLite opens path with foreign keys on and write transactions that
// take the database lock up front.
func openSQLite(path string) (*sqliteDB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_txlock=immediate&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &sqliteDB{sqlConn: sqlConn{q: db}, db: db}, nil
}

func (s *sqliteDB) inTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback()

	if err := fn(sqlConn{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}

func (s *sqliteDB) isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func (s *sqliteDB) uniqueViolation(err error) (string, bool) {
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) && sqErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return sqErr.Error(), true
	}
	return "", false
}

// SQLite has no row locks; the immediate transaction holds the database lock.
func (s *sqliteDB) lockSuffix() string { return "" }

func (s *sqliteDB) schema() string { return sqliteSchema }

func (s *sqliteDB) close() { s.db.Close() }
