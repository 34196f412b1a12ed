package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/katmem/ticket-please/internal/model"
)

var ErrShowSeatNotFound = errors.New("show seat not found")

// showSeatBatch caps rows per INSERT so large screens times many programs
// stay under the placeholder limit.
const showSeatBatch = 1000

// ShowSeatRepo holds the per-show, per-program availability of each seat.
type ShowSeatRepo struct {
	db *sql.DB
}

func NewShowSeatRepo(db *sql.DB) *ShowSeatRepo {
	return &ShowSeatRepo{db: db}
}

// CreateBulkTx inserts show seats in batches within the caller's
// transaction.  IDs of the passed values are not populated.  Rows that
// already exist for a (show, program, seat) keep their current status, so
// re-attaching a program that was unlinked earlier is safe.
func (r *ShowSeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []model.ShowSeat) error {
	for start := 0; start < len(seats); start += showSeatBatch {
		end := min(start+showSeatBatch, len(seats))
		var sb strings.Builder
		sb.WriteString(`INSERT IGNORE INTO show_seats (seat_id, show_id, program_id, status, position) VALUES `)
		args := make([]any, 0, (end-start)*5)
		for i, ss := range seats[start:end] {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString("(?, ?, ?, ?, ?)")
			args = append(args, ss.SeatID, ss.ShowID, ss.ProgramID, ss.Status, ss.Position)
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return err
		}
	}
	return nil
}

// ListByShowProgram returns the seat map of one screening in seat order.
func (r *ShowSeatRepo) ListByShowProgram(ctx context.Context, showID, programID uint64) ([]model.ShowSeat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, seat_id, show_id, program_id, status, position
		 FROM show_seats WHERE show_id = ? AND program_id = ? ORDER BY seat_id`, showID, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ShowSeat
	for rows.Next() {
		var ss model.ShowSeat
		if err := rows.Scan(&ss.ID, &ss.SeatID, &ss.ShowID, &ss.ProgramID, &ss.Status, &ss.Position); err != nil {
			return nil, err
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

// GetByPositionTx locks and returns the show seat at position.
func (r *ShowSeatRepo) GetByPositionTx(ctx context.Context, tx *sql.Tx, showID, programID uint64, position string) (*model.ShowSeat, error) {
	var ss model.ShowSeat
	err := tx.QueryRowContext(ctx,
		`SELECT id, seat_id, show_id, program_id, status, position
		 FROM show_seats WHERE show_id = ? AND program_id = ? AND position = ?
		 LIMIT 1 FOR UPDATE`, showID, programID, position).
		Scan(&ss.ID, &ss.SeatID, &ss.ShowID, &ss.ProgramID, &ss.Status, &ss.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowSeatNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ss, nil
}

// TransitionTx moves a show seat from one status to another.  It reports
// false when the seat was not in the from status, which is how concurrent
// selections of the same seat are told apart.
func (r *ShowSeatRepo) TransitionTx(ctx context.Context, tx *sql.Tx, id uint64, from, to model.SeatStatus) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE show_seats SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseTx makes the seat of an abandoned ticket bookable again.
func (r *ShowSeatRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, showID, programID, seatID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE show_seats SET status = ? WHERE show_id = ? AND program_id = ? AND seat_id = ? AND status = ?`,
		model.SeatAvailable, showID, programID, seatID, model.SeatUnavailable)
	return err
}
