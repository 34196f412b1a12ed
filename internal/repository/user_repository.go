package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/katmem/ticket-please/internal/model"
	"github.com/katmem/ticket-please/internal/utils"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

var (
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
	ErrUserNotFound   = errors.New("user not found")
)

// NewUser carries the registration fields; Password is plain text and is
// hashed by Create.
type NewUser struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
	Role      string
}

const userColumns = "id,email,username,first_name,last_name,password_hash,role,is_active,created_at,updated_at"

func scanUser(s rowScanner) (*model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func normEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// duplicateUserErr maps a unique key violation to the field that clashed.
func duplicateUserErr(err error) error {
	switch {
	case isDuplicate(err, "uq_users_username"):
		return ErrUsernameExists
	case isDuplicate(err, ""):
		return ErrEmailExists
	}
	return err
}

// Create inserts user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, nu NewUser, cost int) (uint64, error) {
	hash, err := utils.HashPassword(nu.Password, cost)
	if err != nil {
		return 0, err
	}
	role := nu.Role
	if role == "" {
		role = model.RoleCustomer
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, username, first_name, last_name, password_hash, role) VALUES (?,?,?,?,?,?)",
		normEmail(nu.Email), strings.TrimSpace(nu.Username), strings.TrimSpace(nu.FirstName),
		strings.TrimSpace(nu.LastName), hash, role)
	if err != nil {
		return 0, duplicateUserErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByLogin fetches a user by email or username.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	login = strings.TrimSpace(login)
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? OR username=? LIMIT 1",
		strings.ToLower(login), login))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UpdateProfile changes the editable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, email, first, last string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET email=?, first_name=?, last_name=? WHERE id=?",
		normEmail(email), strings.TrimSpace(first), strings.TrimSpace(last), id)
	if err != nil {
		return duplicateUserErr(err)
	}
	return requireRow(res, ErrUserNotFound)
}

// UpdatePassword stores a new bcrypt hash for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrUserNotFound)
}
