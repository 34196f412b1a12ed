package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/katmem/ticket-please/internal/model"
)

// ErrShowNotFound indicates that a show was not located in the DB.
var ErrShowNotFound = errors.New("show not found")

// ShowRepo manages shows and their program links.
type ShowRepo struct {
	db *sql.DB
}

func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

const showColumns = `s.id, s.movie_id, s.theater_id, s.screen_id, s.price, s.created_at, s.updated_at`

func scanShow(sc rowScanner) (*model.Show, error) {
	var s model.Show
	err := sc.Scan(&s.ID, &s.MovieID, &s.TheaterID, &s.ScreenID, &s.Price, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Programs = []model.Program{}
	return &s, nil
}

// CreateTx inserts a show in the caller's transaction and sets s.ID.
// Programs are linked separately with LinkProgramsTx.
func (r *ShowRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Show) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO shows (movie_id, theater_id, screen_id, price) VALUES (?, ?, ?, ?)`,
		s.MovieID, s.TheaterID, s.ScreenID, s.Price)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// UpdateTx rewrites movie, theater and price.  The screen is fixed once
// the show exists since its seats were materialized from it.
func (r *ShowRepo) UpdateTx(ctx context.Context, tx *sql.Tx, s *model.Show) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE shows SET movie_id = ?, theater_id = ?, price = ? WHERE id = ?`,
		s.MovieID, s.TheaterID, s.Price, s.ID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrShowNotFound)
}

// GetByID returns the show with its programs ordered by day and hour.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	s, err := scanShow(r.db.QueryRowContext(ctx, "SELECT "+showColumns+" FROM shows s WHERE s.id = ?", id))
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.day, p.hour FROM programs p
		 JOIN show_programs sp ON sp.program_id = p.id
		 WHERE sp.show_id = ? ORDER BY p.day, p.hour`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		s.Programs = append(s.Programs, p)
	}
	return s, rows.Err()
}

// Delete removes a show and cascades its show seats and unpaid tickets.
// A show with paid tickets is kept and ErrConflict returned.
func (r *ShowRepo) Delete(ctx context.Context, id uint64) error {
	var sold int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE show_id = ? AND paid = 1`, id).Scan(&sold); err != nil {
		return err
	}
	if sold > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM shows WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrShowNotFound)
}

// ProgramIDsTx returns the ids of the programs currently linked to the show.
func (r *ShowRepo) ProgramIDsTx(ctx context.Context, tx *sql.Tx, showID uint64) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT program_id FROM show_programs WHERE show_id = ? ORDER BY program_id`, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *ShowRepo) LinkProgramsTx(ctx context.Context, tx *sql.Tx, showID uint64, programIDs []uint64) error {
	if len(programIDs) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO show_programs (show_id, program_id) VALUES `)
	args := make([]any, 0, len(programIDs)*2)
	for i, pid := range programIDs {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?)")
		args = append(args, showID, pid)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// UnlinkProgramsTx drops program links.  Show seats materialized for those
// programs are left in place.
func (r *ShowRepo) UnlinkProgramsTx(ctx context.Context, tx *sql.Tx, showID uint64, programIDs []uint64) error {
	if len(programIDs) == 0 {
		return nil
	}
	args := append([]any{showID}, idArgs(programIDs)...)
	_, err := tx.ExecContext(ctx,
		`DELETE FROM show_programs WHERE show_id = ? AND program_id IN (`+placeholders(len(programIDs))+`)`, args...)
	return err
}

// ListScheduledOnScreen returns the other shows on the screen that run on
// any of the given days, each with the duration of its movie and its
// programs on those days.
func (r *ShowRepo) ListScheduledOnScreen(ctx context.Context, screenID uint64, days []time.Time, excludeShowID uint64) ([]model.ScheduledShow, error) {
	if len(days) == 0 {
		return nil, nil
	}
	args := []any{screenID, excludeShowID}
	for _, d := range days {
		args = append(args, d.Format(model.DayLayout))
	}
	q := `SELECT p.id, p.day, p.hour, s.id, m.duration_min
	      FROM shows s
	      JOIN movies m ON m.id = s.movie_id
	      JOIN show_programs sp ON sp.show_id = s.id
	      JOIN programs p ON p.id = sp.program_id
	      WHERE s.screen_id = ? AND s.id <> ? AND p.day IN (` + placeholders(len(days)) + `)
	      ORDER BY s.id, p.day, p.hour`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ScheduledShow
	for rows.Next() {
		var (
			showID   uint64
			duration int
		)
		p, err := scanProgram(rows, &showID, &duration)
		if err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].ShowID != showID {
			out = append(out, model.ScheduledShow{ShowID: showID, DurationMin: duration})
		}
		last := &out[len(out)-1]
		last.Programs = append(last.Programs, p)
	}
	return out, rows.Err()
}

// FindForSelection returns the show of the movie at the theater that runs
// at the program.  When several match the lowest id wins.
func (r *ShowRepo) FindForSelection(ctx context.Context, movieID, theaterID, programID uint64) (*model.Show, error) {
	const q = `SELECT ` + showColumns + `
	           FROM shows s
	           JOIN show_programs sp ON sp.show_id = s.id
	           WHERE s.movie_id = ? AND s.theater_id = ? AND sp.program_id = ?
	           ORDER BY s.id
	           LIMIT 1`
	return scanShow(r.db.QueryRowContext(ctx, q, movieID, theaterID, programID))
}

// ListBetween returns the shows with programs whose day is in [from, to],
// each carrying only those programs, ordered by city then theater name.
func (r *ShowRepo) ListBetween(ctx context.Context, from, to time.Time) ([]model.ShowListing, error) {
	return r.listings(ctx, "p.day BETWEEN ? AND ?", from.Format(model.DayLayout), to.Format(model.DayLayout))
}

// ListFrom returns the shows with programs on or after day, each carrying
// only those programs.
func (r *ShowRepo) ListFrom(ctx context.Context, day time.Time) ([]model.ShowListing, error) {
	return r.listings(ctx, "p.day >= ?", day.Format(model.DayLayout))
}

// List returns every show with all of its programs.
func (r *ShowRepo) List(ctx context.Context) ([]model.ShowListing, error) {
	return r.listings(ctx, "1=1")
}

func (r *ShowRepo) listings(ctx context.Context, cond string, args ...any) ([]model.ShowListing, error) {
	q := `SELECT p.id, p.day, p.hour, ` + showColumns + `, m.name, m.slug, t.name, t.city, sc.name
	      FROM shows s
	      JOIN movies m ON m.id = s.movie_id
	      JOIN theaters t ON t.id = s.theater_id
	      JOIN screens sc ON sc.id = s.screen_id
	      JOIN show_programs sp ON sp.show_id = s.id
	      JOIN programs p ON p.id = sp.program_id
	      WHERE ` + cond + `
	      ORDER BY t.city, t.name, m.name, s.id, p.day, p.hour`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ShowListing
	for rows.Next() {
		var l model.ShowListing
		p, err := scanProgram(rows,
			&l.ID, &l.MovieID, &l.TheaterID, &l.ScreenID, &l.Price, &l.CreatedAt, &l.UpdatedAt,
			&l.MovieName, &l.MovieSlug, &l.TheaterName, &l.City, &l.ScreenName)
		if err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].ID != l.ID {
			out = append(out, l)
		}
		last := &out[len(out)-1]
		last.Programs = append(last.Programs, p)
	}
	return out, rows.Err()
}
