package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// TxRunner opens transactions spanning several repositories.
type TxRunner struct{ db *sql.DB }

func NewTxRunner(db *sql.DB) *TxRunner { return &TxRunner{db: db} }

// WithinTx runs fn inside a transaction.  The transaction is committed when
// fn returns nil and rolled back otherwise; fn's error is returned as is.
func (r *TxRunner) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
