package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/katmem/ticket-please/internal/model"
)

// ErrTheaterNotFound is returned when a theater cannot be found in the DB.
var ErrTheaterNotFound = errors.New("theater not found")

// TheaterRepo encapsulates the queries on theaters.
type TheaterRepo struct {
	db *sql.DB
}

func NewTheaterRepo(db *sql.DB) *TheaterRepo {
	return &TheaterRepo{db: db}
}

const theaterColumns = "t.id, t.name, t.city, t.county, t.address, t.zipcode, t.created_at, t.updated_at"

func scanTheater(s rowScanner) (*model.Theater, error) {
	var t model.Theater
	if err := s.Scan(&t.ID, &t.Name, &t.City, &t.County, &t.Address, &t.Zipcode, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTheaterNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TheaterRepo) list(ctx context.Context, q string, args ...any) ([]model.Theater, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Theater
	for rows.Next() {
		t, err := scanTheater(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Create inserts a theater and reloads it so timestamps are populated.
func (r *TheaterRepo) Create(ctx context.Context, t *model.Theater) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO theaters (name, city, county, address, zipcode) VALUES (?, ?, ?, ?, ?)",
		t.Name, t.City, t.County, t.Address, t.Zipcode)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*t = *fresh
	return nil
}

func (r *TheaterRepo) GetByID(ctx context.Context, id uint64) (*model.Theater, error) {
	return scanTheater(r.db.QueryRowContext(ctx,
		"SELECT "+theaterColumns+" FROM theaters t WHERE t.id = ?", id))
}

// List returns every theater ordered by city, then name.
func (r *TheaterRepo) List(ctx context.Context) ([]model.Theater, error) {
	return r.list(ctx, "SELECT "+theaterColumns+" FROM theaters t ORDER BY t.city, t.name, t.id")
}

// ListHostingMovie returns the theaters running the movie on a program
// whose day falls in [from, to].
func (r *TheaterRepo) ListHostingMovie(ctx context.Context, movieID uint64, from, to time.Time) ([]model.Theater, error) {
	const q = `SELECT DISTINCT ` + theaterColumns + `
	           FROM theaters t
	           JOIN shows s ON s.theater_id = t.id
	           JOIN show_programs sp ON sp.show_id = s.id
	           JOIN programs p ON p.id = sp.program_id
	           WHERE s.movie_id = ? AND p.day BETWEEN ? AND ?
	           ORDER BY t.city, t.name, t.id`
	return r.list(ctx, q, movieID, from.Format(model.DayLayout), to.Format(model.DayLayout))
}

func (r *TheaterRepo) Update(ctx context.Context, t *model.Theater) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE theaters SET name = ?, city = ?, county = ?, address = ?, zipcode = ? WHERE id = ?`,
		t.Name, t.City, t.County, t.Address, t.Zipcode, t.ID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrTheaterNotFound)
}

// Delete removes a theater.  Screens, seats, shows and their tickets go
// with it through ON DELETE CASCADE.
func (r *TheaterRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM theaters WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrTheaterNotFound)
}
