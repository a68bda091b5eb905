package store

import "context"

type rowScanner interface {
	Scan(dest ...any) error
}

type rowIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// querier runs SQL written with $N placeholders.
type querier interface {
	queryRow(ctx context.Context, query string, args ...any) rowScanner
	query(ctx context.Context, query string, args ...any) (rowIter, error)
	exec(ctx context.Context, query string, args ...any) (int64, error)
}

// backend is a database engine behind Store.
type backend interface {
	querier
	inTx(ctx context.Context, fn func(q querier) error) error
	isNoRows(err error) bool
	// uniqueViolation reports a unique-constraint failure and a detail
	// naming the constraint or columns involved.
	uniqueViolation(err error) (string, bool)
	// lockSuffix is appended to a SELECT to lock the selected row.
	lockSuffix() string
	schema() string
	close()
}
