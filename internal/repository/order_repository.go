package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/katmem/ticket-please/internal/model"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderRepo stores orders together with the payment that settled them.
type OrderRepo struct{ db *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderSelect = `SELECT o.id, o.user_id, o.payment_id, o.total, o.created_at,
	       pm.id, pm.reference, pm.card_brand, pm.card_last4, pm.card_expiry, pm.created_at
	FROM orders o
	JOIN payments pm ON pm.id = o.payment_id`

func scanOrder(s rowScanner) (*model.Order, error) {
	var (
		o  model.Order
		pm model.Payment
	)
	err := s.Scan(&o.ID, &o.UserID, &o.PaymentID, &o.Total, &o.CreatedAt,
		&pm.ID, &pm.Reference, &pm.CardBrand, &pm.CardLast4, &pm.CardExpiry, &pm.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Payment = &pm
	return &o, nil
}

// CreateTx inserts the order and sets o.ID.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, payment_id, total) VALUES (?, ?, ?)`,
		o.UserID, o.PaymentID, o.Total)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// SetTotalTx rewrites the order total once its tickets are known.
func (r *OrderRepo) SetTotalTx(ctx context.Context, tx *sql.Tx, id uint64, total decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, `UPDATE orders SET total = ? WHERE id = ?`, total, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ListByUser returns the user's orders, newest first, without tickets.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, orderSelect+` WHERE o.user_id = ? ORDER BY o.created_at DESC, o.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// GetByIDForUser returns the order only when it belongs to userID.
func (r *OrderRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Order, error) {
	return scanOrder(r.db.QueryRowContext(ctx, orderSelect+` WHERE o.id = ? AND o.user_id = ?`, id, userID))
}
