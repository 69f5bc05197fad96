package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/and161185/audio-dementia/internal/errs"
	"github.com/and161185/audio-dementia/internal/model"
	"github.com/and161185/audio-dementia/internal/repository"
	"github.com/jackc/pgx/v5"
)

// TokenRepo implements TokenRepository using PostgreSQL.
type TokenRepo struct{ db *DB }

var _ repository.TokenRepository = (*TokenRepo)(nil)

// NewTokenRepo constructs a refresh token repository.
func NewTokenRepo(db *DB) *TokenRepo { return &TokenRepo{db: db} }

// CreateOrGet returns the live token of candidate.UserID. An expired row is
// replaced with candidate; concurrent callers converge on one row through the
// unique user_id constraint.
func (r *TokenRepo) CreateOrGet(
	ctx context.Context, candidate model.RefreshToken, now time.Time,
) (tok model.RefreshToken, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.RefreshToken{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const del = `DELETE FROM refresh_token WHERE user_id=$1 AND expiration_date <= $2`
	const ins = `
INSERT INTO refresh_token (token, user_id, expiration_date)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO NOTHING`
	const sel = `SELECT token, user_id, expiration_date FROM refresh_token WHERE user_id=$1`

	if _, err = tx.Exec(ctx, del, candidate.UserID, now); err != nil {
		return model.RefreshToken{}, err
	}
	if _, err = tx.Exec(ctx, ins, candidate.Token, candidate.UserID, candidate.ExpiresAt); err != nil {
		if isForeignKeyViolation(err) {
			return model.RefreshToken{}, errs.ErrNotFound
		}
		return model.RefreshToken{}, err
	}
	if err = tx.QueryRow(ctx, sel, candidate.UserID).Scan(&tok.Token, &tok.UserID, &tok.ExpiresAt); err != nil {
		return model.RefreshToken{}, err
	}
	return tok, nil
}

// Get loads a token row by value.
func (r *TokenRepo) Get(ctx context.Context, token string) (model.RefreshToken, error) {
	const q = `SELECT token, user_id, expiration_date FROM refresh_token WHERE token=$1`
	var t model.RefreshToken
	if err := r.db.Pool.QueryRow(ctx, q, token).Scan(&t.Token, &t.UserID, &t.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshToken{}, errs.ErrNotFound
		}
		return model.RefreshToken{}, err
	}
	return t, nil
}

// Delete removes a token row if present.
func (r *TokenRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM refresh_token WHERE token=$1`, token)
	return err
}

// DeleteExpired removes rows whose expiry is at or before now.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM refresh_token WHERE expiration_date <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
