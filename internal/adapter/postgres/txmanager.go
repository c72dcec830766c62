package postgres

import (
	"context"
	"fmt"
)

// TxManager runs functions inside a single database transaction that
// repositories join through the context. Nesting is not supported:
// RunInTx inside a RunInTx callback opens a second, independent
// transaction.
type TxManager struct {
	pool Pool
}

func NewTxManager(pool Pool) *TxManager {
	return &TxManager{pool: pool}
}

// RunInTx begins a transaction at the Read Committed level, calls fn
// with a context carrying the transaction, and commits if fn returns
// nil. An error or panic from fn rolls the transaction back; a panic is
// re-raised by the runtime after the deferred rollback.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}
