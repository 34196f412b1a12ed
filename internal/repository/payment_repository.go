package repository

import (
	"context"
	"database/sql"

	"github.com/katmem/ticket-please/internal/model"
)

// PaymentRepo stores accepted card payments in masked form.
type PaymentRepo struct{ db *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts the payment and sets p.ID.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO payments (reference, card_brand, card_last4, card_expiry) VALUES (?, ?, ?, ?)`,
		p.Reference, p.CardBrand, p.CardLast4, p.CardExpiry)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}
