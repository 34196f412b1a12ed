package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/katmem/ticket-please/internal/model"
)

var (
	ErrGenreNotFound = errors.New("genre not found")
	ErrGenreExists   = errors.New("genre already exists")
)

type GenreRepo struct{ db *sql.DB }

func NewGenreRepo(db *sql.DB) *GenreRepo { return &GenreRepo{db: db} }

func (r *GenreRepo) Create(ctx context.Context, name string) (*model.Genre, error) {
	name = strings.TrimSpace(name)
	res, err := r.db.ExecContext(ctx, "INSERT INTO genres (name) VALUES (?)", name)
	if err != nil {
		if isDuplicate(err, "") {
			return nil, ErrGenreExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Genre{ID: uint64(id), Name: name}, nil
}

// List returns all genres alphabetically.
func (r *GenreRepo) List(ctx context.Context) ([]model.Genre, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM genres ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Genre
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GenreRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM genres WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrGenreNotFound)
}
