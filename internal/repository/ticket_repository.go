package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/katmem/ticket-please/internal/model"
)

var ErrTicketNotFound = errors.New("ticket not found")

// TicketRepo stores tickets.  A ticket is inserted unpaid when its seat is
// selected and flipped to paid by MarkPaidTx at checkout.
type TicketRepo struct {
	db *sql.DB
}

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `t.id, t.code, t.user_id, t.show_id, t.seat_id, t.program_id, t.paid, t.order_id, t.created_at`

// ticketDetailSelect joins everything printed on a ticket.  Program columns
// come first so rows can go through scanProgram.
const ticketDetailSelect = `SELECT p.id, p.day, p.hour, ` + ticketColumns + `,
	       m.name, th.name, sc.name, se.position, s.price
	FROM tickets t
	JOIN shows s     ON s.id = t.show_id
	JOIN movies m    ON m.id = s.movie_id
	JOIN theaters th ON th.id = s.theater_id
	JOIN screens sc  ON sc.id = s.screen_id
	JOIN seats se    ON se.id = t.seat_id
	JOIN programs p  ON p.id = t.program_id`

func scanTicketDetail(s rowScanner) (*model.TicketDetail, error) {
	var (
		d       model.TicketDetail
		orderID sql.NullInt64
	)
	p, err := scanProgram(s,
		&d.ID, &d.Code, &d.UserID, &d.ShowID, &d.SeatID, &d.ProgramID, &d.Paid, &orderID, &d.CreatedAt,
		&d.MovieName, &d.TheaterName, &d.ScreenName, &d.Position, &d.Price)
	if errors.Is(err, ErrProgramNotFound) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	d.Program = p
	d.OrderID = nullableID(orderID)
	return &d, nil
}

func (r *TicketRepo) listDetails(ctx context.Context, q string, args ...any) ([]model.TicketDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TicketDetail{}
	for rows.Next() {
		d, err := scanTicketDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// CreateTx inserts an unpaid ticket and sets t.ID.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO tickets (code, user_id, show_id, seat_id, program_id, paid) VALUES (?, ?, ?, ?, ?, 0)`,
		t.Code, t.UserID, t.ShowID, t.SeatID, t.ProgramID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.Paid = false
	return nil
}

// MarkPaidTx flips every unpaid ticket of the user for the show and
// program to paid under orderID and returns how many were flipped.
func (r *TicketRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, userID, showID, programID, orderID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE tickets SET paid = 1, order_id = ?
		 WHERE user_id = ? AND show_id = ? AND program_id = ? AND paid = 0`,
		orderID, userID, showID, programID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListPaid returns the user's paid tickets for one show and program.
func (r *TicketRepo) ListPaid(ctx context.Context, userID, showID, programID uint64) ([]model.TicketDetail, error) {
	return r.listDetails(ctx, ticketDetailSelect+`
		WHERE t.user_id = ? AND t.show_id = ? AND t.program_id = ? AND t.paid = 1
		ORDER BY t.id`, userID, showID, programID)
}

// ListByOrders returns the tickets of the given orders.
func (r *TicketRepo) ListByOrders(ctx context.Context, orderIDs []uint64) ([]model.TicketDetail, error) {
	if len(orderIDs) == 0 {
		return []model.TicketDetail{}, nil
	}
	return r.listDetails(ctx, ticketDetailSelect+`
		WHERE t.order_id IN (`+placeholders(len(orderIDs))+`)
		ORDER BY t.order_id, t.id`, idArgs(orderIDs)...)
}

// ListSoldForShow returns the paid tickets of a show across all programs.
func (r *TicketRepo) ListSoldForShow(ctx context.Context, showID uint64) ([]model.TicketDetail, error) {
	return r.listDetails(ctx, ticketDetailSelect+`
		WHERE t.show_id = ? AND t.paid = 1
		ORDER BY p.day, p.hour, se.position`, showID)
}

// GetByCode returns a ticket by its public code.
func (r *TicketRepo) GetByCode(ctx context.Context, code string) (*model.TicketDetail, error) {
	return scanTicketDetail(r.db.QueryRowContext(ctx, ticketDetailSelect+` WHERE t.code = ?`, code))
}

// ListStaleUnpaidTx locks unpaid tickets created before cutoff.
func (r *TicketRepo) ListStaleUnpaidTx(ctx context.Context, tx *sql.Tx, cutoff time.Time, limit int) ([]model.Ticket, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets t
		 WHERE t.paid = 0 AND t.created_at < ?
		 ORDER BY t.id LIMIT ? FOR UPDATE`, cutoff.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Ticket
	for rows.Next() {
		var (
			t       model.Ticket
			orderID sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Code, &t.UserID, &t.ShowID, &t.SeatID, &t.ProgramID, &t.Paid, &orderID, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.OrderID = nullableID(orderID)
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTx removes tickets by id.  Only unpaid tickets are touched.
func (r *TicketRepo) DeleteTx(ctx context.Context, tx *sql.Tx, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM tickets WHERE paid = 0 AND id IN (`+placeholders(len(ids))+`)`, idArgs(ids)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
