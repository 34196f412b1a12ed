package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/katmem/ticket-please/internal/model"
)

// ErrScreenNotFound is returned when a screen lookup fails.
var ErrScreenNotFound = errors.New("screen not found")

// ScreenRepo stores screens.  Seat counts are only ever written by
// UpdateCountsTx, right after the seats are materialized.
type ScreenRepo struct {
	db *sql.DB
}

func NewScreenRepo(db *sql.DB) *ScreenRepo {
	return &ScreenRepo{db: db}
}

const screenColumns = `id, theater_id, name, seating_pattern, no_rows, no_cols, no_seats, created_at, updated_at`

func scanScreen(s rowScanner) (*model.Screen, error) {
	var sc model.Screen
	err := s.Scan(&sc.ID, &sc.TheaterID, &sc.Name, &sc.SeatingPattern,
		&sc.NoRows, &sc.NoCols, &sc.NoSeats, &sc.CreatedAt, &sc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScreenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// CreateTx inserts the screen row with zero counts and sets sc.ID.
func (r *ScreenRepo) CreateTx(ctx context.Context, tx *sql.Tx, sc *model.Screen) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO screens (theater_id, name, seating_pattern) VALUES (?, ?, ?)`,
		sc.TheaterID, sc.Name, sc.SeatingPattern)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sc.ID = uint64(id)
	return nil
}

// UpdateCountsTx writes the derived row, column and seat counts.
func (r *ScreenRepo) UpdateCountsTx(ctx context.Context, tx *sql.Tx, id uint64, rows, cols, seats int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE screens SET no_rows = ?, no_cols = ?, no_seats = ? WHERE id = ?`,
		rows, cols, seats, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrScreenNotFound)
}

func (r *ScreenRepo) GetByID(ctx context.Context, id uint64) (*model.Screen, error) {
	return scanScreen(r.db.QueryRowContext(ctx,
		"SELECT "+screenColumns+" FROM screens WHERE id = ?", id))
}

// ListByTheater returns the theater's screens ordered by name.
func (r *ScreenRepo) ListByTheater(ctx context.Context, theaterID uint64) ([]model.Screen, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+screenColumns+" FROM screens WHERE theater_id = ? ORDER BY name, id", theaterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Screen
	for rows.Next() {
		sc, err := scanScreen(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sc)
	}
	return out, rows.Err()
}

// Rename changes the display name.  The pattern and the seats derived from
// it are fixed at creation.
func (r *ScreenRepo) Rename(ctx context.Context, id uint64, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE screens SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrScreenNotFound)
}

func (r *ScreenRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM screens WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrScreenNotFound)
}
