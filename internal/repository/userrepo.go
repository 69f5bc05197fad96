// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/and161185/audio-dementia/internal/model"
)

// UserRepository provides access to application users.
type UserRepository interface {
	// Create inserts a new user and sets its ID. A taken login yields errs.ErrAlreadyExists.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByLogin loads a user by login.
	GetByLogin(ctx context.Context, login string) (*model.User, error)
}

// TokenRepository persists refresh tokens (at most one per user).
type TokenRepository interface {
	// CreateOrGet returns the live token of the user, replacing an expired one with candidate.
	CreateOrGet(ctx context.Context, candidate model.RefreshToken, now time.Time) (model.RefreshToken, error)
	// Get loads a token row; unknown tokens yield errs.ErrNotFound.
	Get(ctx context.Context, token string) (model.RefreshToken, error)
	// Delete removes a token; deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes all rows expired at now and reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
