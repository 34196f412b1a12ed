package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/katmem/ticket-please/internal/model"
)

var (
	ErrProgramNotFound = errors.New("program not found")
	ErrProgramExists   = errors.New("program already exists")
)

// ProgramRepo stores the (day, hour) slots shows run at.
type ProgramRepo struct{ db *sql.DB }

func NewProgramRepo(db *sql.DB) *ProgramRepo { return &ProgramRepo{db: db} }

// scanProgram reads DATE as time and TIME as an "HH:MM:SS" string; the
// driver only parses DATE/DATETIME into time.Time.
func scanProgram(s rowScanner, extra ...any) (model.Program, error) {
	var (
		p    model.Program
		hour string
	)
	dest := append([]any{&p.ID, &p.Day, &hour}, extra...)
	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, ErrProgramNotFound
		}
		return p, err
	}
	d, err := model.ParseClock(hour)
	if err != nil {
		return p, err
	}
	p.Day = model.DayOf(p.Day)
	p.Hour = d
	return p, nil
}

func (r *ProgramRepo) Create(ctx context.Context, day time.Time, hour time.Duration) (*model.Program, error) {
	day = model.DayOf(day)
	res, err := r.db.ExecContext(ctx, `INSERT INTO programs (day, hour) VALUES (?, ?)`,
		day.Format(model.DayLayout), model.FormatClock(hour))
	if err != nil {
		if isDuplicate(err, "") {
			return nil, ErrProgramExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Program{ID: uint64(id), Day: day, Hour: hour}, nil
}

func (r *ProgramRepo) GetByID(ctx context.Context, id uint64) (*model.Program, error) {
	p, err := scanProgram(r.db.QueryRowContext(ctx, `SELECT id, day, hour FROM programs WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByIDs returns the programs with the given ids ordered by day and
// hour.  Unknown ids are silently absent from the result.
func (r *ProgramRepo) ListByIDs(ctx context.Context, ids []uint64) ([]model.Program, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT id, day, hour FROM programs WHERE id IN (`+placeholders(len(ids))+`) ORDER BY day, hour`,
		idArgs(ids)...)
}

// ListFrom returns every program on or after day.
func (r *ProgramRepo) ListFrom(ctx context.Context, day time.Time) ([]model.Program, error) {
	return r.list(ctx, `SELECT id, day, hour FROM programs WHERE day >= ? ORDER BY day, hour`,
		day.Format(model.DayLayout))
}

// ListForMovieAtTheater returns the programs of the movie's shows at the
// theater whose day is in [from, to], ordered by day then hour.
func (r *ProgramRepo) ListForMovieAtTheater(ctx context.Context, movieID, theaterID uint64, from, to time.Time) ([]model.Program, error) {
	const q = `SELECT DISTINCT p.id, p.day, p.hour
	           FROM programs p
	           JOIN show_programs sp ON sp.program_id = p.id
	           JOIN shows s ON s.id = sp.show_id
	           WHERE s.movie_id = ? AND s.theater_id = ? AND p.day BETWEEN ? AND ?
	           ORDER BY p.day, p.hour`
	return r.list(ctx, q, movieID, theaterID, from.Format(model.DayLayout), to.Format(model.DayLayout))
}

func (r *ProgramRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM programs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrProgramNotFound)
}

func (r *ProgramRepo) list(ctx context.Context, q string, args ...any) ([]model.Program, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
