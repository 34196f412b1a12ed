package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/katmem/ticket-please/internal/model"
)

// SeatRepo stores the physical seats of a screen.
type SeatRepo struct {
	db *sql.DB
}

func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// CreateBulkTx inserts all seats of a screen in one statement.  Seat IDs
// are not populated; reload them with ListByScreenTx.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO seats (screen_id, position, status) VALUES `)
	args := make([]any, 0, len(seats)*3)
	for i, s := range seats {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, s.ScreenID, s.Position, s.Status)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// ListByScreenTx reads the seats inside the caller's transaction.
func (r *SeatRepo) ListByScreenTx(ctx context.Context, tx *sql.Tx, screenID uint64) ([]model.Seat, error) {
	return listSeats(ctx, tx, screenID)
}

// ListByScreen returns the seats in insertion order, which is the
// row-major order of the seating pattern.
func (r *SeatRepo) ListByScreen(ctx context.Context, screenID uint64) ([]model.Seat, error) {
	return listSeats(ctx, r.db, screenID)
}

func listSeats(ctx context.Context, q querier, screenID uint64) ([]model.Seat, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, screen_id, position, status, created_at FROM seats WHERE screen_id = ? ORDER BY id`, screenID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.ScreenID, &s.Position, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
