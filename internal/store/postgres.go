package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/postgres.sql
var postgresSchema string

type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type pgConn struct {
	q pgQuerier
}

func (c pgConn) queryRow(ctx context.Context, query string, args ...any) rowScanner {
	return c.q.QueryRow(ctx, query, args...)
}

func (c pgConn) query(ctx context.Context, query string, args ...any) (rowIter, error) {
	return c.q.Query(ctx, query, args...)
}

func (c pgConn) exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := c.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type postgres struct {
	pgConn
	pool *pgxpool.Pool
}

func openPostgres(ctx context.Context, connString string) (*postgres, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &postgres{pgConn: pgConn{q: pool}, pool: pool}, nil
}

func (p *postgres) inTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(pgConn{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}

func (p *postgres) isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func (p *postgres) uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func (p *postgres) lockSuffix() string { return " FOR UPDATE" }

func (p *postgres) schema() string { return postgresSchema }

func (p *postgres) close() { p.pool.Close() }
