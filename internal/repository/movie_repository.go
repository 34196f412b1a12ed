package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/katmem/ticket-please/internal/model"
)

var ErrMovieNotFound = errors.New("movie not found")

// MovieRepo stores movies and their genre links.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = `m.id, m.name, m.slug, m.description, m.language, m.year, m.rating,
	m.duration_min, m.director, m.cast_list, m.trailer_url, m.image_url, m.created_at, m.updated_at`

func scanMovie(s rowScanner) (*model.Movie, error) {
	var (
		m      model.Movie
		rating sql.NullFloat64
	)
	err := s.Scan(&m.ID, &m.Name, &m.Slug, &m.Description, &m.Language, &m.Year, &rating,
		&m.DurationMin, &m.Director, &m.Cast, &m.TrailerURL, &m.ImageURL, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	if rating.Valid {
		m.Rating = &rating.Float64
	}
	m.Genres = []model.Genre{}
	return &m, nil
}

// Create inserts the movie with a unique slug derived from its name and
// links the given genres, all in one transaction.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie, genreIDs []uint64) error {
	return NewTxRunner(r.db).WithinTx(ctx, func(tx *sql.Tx) error {
		s, err := uniqueSlug(ctx, tx, m.Name, 0)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO movies (name, slug, description, language, year, rating, duration_min,
			                     director, cast_list, trailer_url, image_url)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.Name, s, m.Description, m.Language, m.Year, m.Rating, m.DurationMin,
			m.Director, m.Cast, m.TrailerURL, m.ImageURL)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		m.ID, m.Slug = uint64(id), s
		return linkGenres(ctx, tx, m.ID, genreIDs)
	})
}

// Update rewrites the movie fields and replaces its genre set.  The slug
// is kept unless the name changed.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie, genreIDs []uint64) error {
	return NewTxRunner(r.db).WithinTx(ctx, func(tx *sql.Tx) error {
		var curName, curSlug string
		err := tx.QueryRowContext(ctx, `SELECT name, slug FROM movies WHERE id = ? FOR UPDATE`, m.ID).Scan(&curName, &curSlug)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMovieNotFound
		}
		if err != nil {
			return err
		}
		m.Slug = curSlug
		if curName != m.Name {
			if m.Slug, err = uniqueSlug(ctx, tx, m.Name, m.ID); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE movies SET name = ?, slug = ?, description = ?, language = ?, year = ?, rating = ?,
			        duration_min = ?, director = ?, cast_list = ?, trailer_url = ?, image_url = ?
			 WHERE id = ?`,
			m.Name, m.Slug, m.Description, m.Language, m.Year, m.Rating, m.DurationMin,
			m.Director, m.Cast, m.TrailerURL, m.ImageURL, m.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM movie_genres WHERE movie_id = ?`, m.ID); err != nil {
			return err
		}
		return linkGenres(ctx, tx, m.ID, genreIDs)
	})
}

// uniqueSlug slugifies name and appends -2, -3, ... until no other movie
// uses it.
func uniqueSlug(ctx context.Context, tx *sql.Tx, name string, selfID uint64) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "movie"
	}
	candidate := base
	for n := 2; ; n++ {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM movies WHERE slug = ? AND id <> ?`, candidate, selfID).Scan(&count); err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func linkGenres(ctx context.Context, tx *sql.Tx, movieID uint64, genreIDs []uint64) error {
	if len(genreIDs) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT IGNORE INTO movie_genres (movie_id, genre_id) VALUES `)
	args := make([]any, 0, len(genreIDs)*2)
	for i, g := range genreIDs {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?)")
		args = append(args, movieID, g)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	return r.getOne(ctx, "SELECT "+movieColumns+" FROM movies m WHERE m.id = ?", id)
}

func (r *MovieRepo) GetBySlug(ctx context.Context, s string) (*model.Movie, error) {
	return r.getOne(ctx, "SELECT "+movieColumns+" FROM movies m WHERE m.slug = ?", s)
}

func (r *MovieRepo) getOne(ctx context.Context, q string, arg any) (*model.Movie, error) {
	m, err := scanMovie(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		return nil, err
	}
	out := []model.Movie{*m}
	if err := r.attachGenres(ctx, out); err != nil {
		return nil, err
	}
	return &out[0], nil
}

// List returns the whole catalog, newest first.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	return r.list(ctx, "SELECT "+movieColumns+" FROM movies m ORDER BY m.year DESC, m.name")
}

// ListShowingBetween returns movies with at least one program whose day is
// in [from, to].
func (r *MovieRepo) ListShowingBetween(ctx context.Context, from, to time.Time) ([]model.Movie, error) {
	const q = `SELECT DISTINCT ` + movieColumns + `
	           FROM movies m
	           JOIN shows s ON s.movie_id = m.id
	           JOIN show_programs sp ON sp.show_id = s.id
	           JOIN programs p ON p.id = sp.program_id
	           WHERE p.day BETWEEN ? AND ?
	           ORDER BY m.name, m.id`
	return r.list(ctx, q, from.Format(model.DayLayout), to.Format(model.DayLayout))
}

// ListComingFrom returns movies whose earliest program on or after today
// is on or after from.
func (r *MovieRepo) ListComingFrom(ctx context.Context, today, from time.Time) ([]model.Movie, error) {
	const q = `SELECT ` + movieColumns + `
	           FROM movies m
	           JOIN shows s ON s.movie_id = m.id
	           JOIN show_programs sp ON sp.show_id = s.id
	           JOIN programs p ON p.id = sp.program_id
	           WHERE p.day >= ?
	           GROUP BY m.id
	           HAVING MIN(p.day) >= ?
	           ORDER BY MIN(p.day), m.name`
	return r.list(ctx, q, today.Format(model.DayLayout), from.Format(model.DayLayout))
}

// ListRelated returns up to limit other movies sharing a genre with movieID.
func (r *MovieRepo) ListRelated(ctx context.Context, movieID uint64, limit int) ([]model.Movie, error) {
	const q = `SELECT ` + movieColumns + `
	           FROM movies m
	           JOIN movie_genres mg ON mg.movie_id = m.id
	           WHERE mg.genre_id IN (SELECT genre_id FROM movie_genres WHERE movie_id = ?)
	             AND m.id <> ?
	           GROUP BY m.id
	           ORDER BY COUNT(*) DESC, m.year DESC, m.id
	           LIMIT ?`
	return r.list(ctx, q, movieID, movieID, limit)
}

func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrMovieNotFound)
}

func (r *MovieRepo) list(ctx context.Context, q string, args ...any) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachGenres(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachGenres loads the genres of every movie in one query.
func (r *MovieRepo) attachGenres(ctx context.Context, movies []model.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	ids := make([]uint64, len(movies))
	index := make(map[uint64]int, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
		index[m.ID] = i
	}
	q := `SELECT mg.movie_id, g.id, g.name FROM movie_genres mg
	      JOIN genres g ON g.id = mg.genre_id
	      WHERE mg.movie_id IN (` + placeholders(len(ids)) + `)
	      ORDER BY g.name`
	rows, err := r.db.QueryContext(ctx, q, idArgs(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			movieID uint64
			g       model.Genre
		)
		if err := rows.Scan(&movieID, &g.ID, &g.Name); err != nil {
			return err
		}
		i := index[movieID]
		movies[i].Genres = append(movies[i].Genres, g)
	}
	return rows.Err()
}
