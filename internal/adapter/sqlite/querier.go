package sqlite

import (
	"context"
	"database/sql"
)

// querier is the subset shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txCtxKey struct{}

func withTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txCtxKey{}, tx)
}

func hasTx(ctx context.Context) bool {
	_, ok := ctx.Value(txCtxKey{}).(*sql.Tx)
	return ok
}

// querierFromCtx returns the transaction carried by ctx, or db. With the
// single-connection pool every call made inside RunInTx must go through the
// transaction, or it would wait for the connection the transaction holds.
func querierFromCtx(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txCtxKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}
