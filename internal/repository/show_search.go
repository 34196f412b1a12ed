package repository

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/katmem/ticket-please/internal/model"
)

// ShowSearchQuery defines filters & pagination for searching screenings.
// From and To bound the program day; zero To means no upper bound.
type ShowSearchQuery struct {
	Movie    string
	Theater  string
	City     string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// PublicShowRow is one screening: a show at one of its programs.
type PublicShowRow struct {
	ShowID      uint64          `json:"show_id"`
	MovieID     uint64          `json:"movie_id"`
	MovieName   string          `json:"movie_name"`
	MovieSlug   string          `json:"movie_slug"`
	TheaterID   uint64          `json:"theater_id"`
	TheaterName string          `json:"theater_name"`
	City        string          `json:"city"`
	ScreenID    uint64          `json:"screen_id"`
	ScreenName  string          `json:"screen_name"`
	Program     model.Program   `json:"program"`
	Price       decimal.Decimal `json:"price"`
}

func (r *ShowRepo) Search(ctx context.Context, q ShowSearchQuery) ([]PublicShowRow, int64, error) {
	where := []string{"p.day >= ?"}
	args := []any{q.From.Format(model.DayLayout)}

	if !q.To.IsZero() {
		where = append(where, "p.day <= ?")
		args = append(args, q.To.Format(model.DayLayout))
	}
	if q.Movie != "" {
		where = append(where, "LOWER(m.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Movie)+"%")
	}
	if q.Theater != "" {
		where = append(where, "LOWER(t.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Theater)+"%")
	}
	if q.City != "" {
		where = append(where, "LOWER(t.city) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.City)+"%")
	}
	cond := strings.Join(where, " AND ")

	const from = `FROM shows s
		JOIN movies m   ON m.id = s.movie_id
		JOIN theaters t ON t.id = s.theater_id
		JOIN screens sc ON sc.id = s.screen_id
		JOIN show_programs sp ON sp.show_id = s.id
		JOIN programs p ON p.id = sp.program_id
		WHERE `

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) "+from+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT p.id, p.day, p.hour,
			s.id, m.id, m.name, m.slug, t.id, t.name, t.city, sc.id, sc.name, s.price
		` + from + cond + `
		ORDER BY p.day, p.hour, t.city, t.name, s.id
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]PublicShowRow, 0, limit)
	for rows.Next() {
		var d PublicShowRow
		p, err := scanProgram(rows,
			&d.ShowID, &d.MovieID, &d.MovieName, &d.MovieSlug,
			&d.TheaterID, &d.TheaterName, &d.City,
			&d.ScreenID, &d.ScreenName, &d.Price)
		if err != nil {
			return nil, 0, err
		}
		d.Program = p
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
