package postgres

import (
	"context"
	"errors"

	"github.com/and161185/audio-dementia/internal/errs"
	"github.com/and161185/audio-dementia/internal/model"
	"github.com/and161185/audio-dementia/internal/repository"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

var _ repository.UserRepository = (*UserRepo)(nil)

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user row and fills ID and CreatedAt.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO app_user (login, pwd_hash, salt)
VALUES ($1, $2, $3)
RETURNING id, created_at`
	err := r.db.Pool.QueryRow(ctx, q, u.Login, u.PwdHash, u.Salt).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const q = `
SELECT id, login, pwd_hash, salt, created_at
FROM app_user WHERE id=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByLogin selects a user by login.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	const q = `
SELECT id, login, pwd_hash, salt, created_at
FROM app_user WHERE login=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, login))
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Login, &u.PwdHash, &u.Salt, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
