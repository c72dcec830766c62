package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the minimal query surface repositories depend on. It is
// satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools, so the same
// repository code runs against the pool, inside a transaction, or under
// a mock.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool adds the lifecycle operations needed by the TxManager and the
// readiness probe.
type Pool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

type txCtxKey struct{}

func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txCtxKey{}, tx)
}

// QuerierFromCtx picks the ambient transaction if the context carries
// one, falling back to the pool. Every repository routes its queries
// through this, which is how TxManager.RunInTx makes multi-repository
// operations atomic without explicit transaction plumbing.
func QuerierFromCtx(ctx context.Context, pool Pool) Querier {
	if tx, ok := ctx.Value(txCtxKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}
