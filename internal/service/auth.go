// Package service contains application services for authentication, playlists and the catalog.
package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	pkgcrypto "github.com/and161185/audio-dementia/internal/crypto"
	"github.com/and161185/audio-dementia/internal/errs"
	"github.com/and161185/audio-dementia/internal/limiter"
	"github.com/and161185/audio-dementia/internal/model"
	"github.com/and161185/audio-dementia/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 24 * 7 * 24 * time.Hour // 24 weeks
)

// AuthService defines account and token operations.
type AuthService interface {
	// Register creates a new user with a salted password hash.
	Register(ctx context.Context, login, password string) (model.User, error)
	// VerifyCredentials checks a login/password pair.
	VerifyCredentials(ctx context.Context, login, password string) (model.User, error)
	// Login applies rate limiting, verifies credentials and issues both tokens.
	Login(ctx context.Context, login, password, ip string) (model.Tokens, error)
	// IssueAccessToken signs a short-lived access token for the user.
	IssueAccessToken(userID int64, ttl time.Duration) (string, time.Time, error)
	// ValidateAccessToken returns the user ID carried by a valid access token.
	ValidateAccessToken(token string) (int64, error)
	// IssueOrReuseRefreshToken returns the user's live refresh token, creating one if needed.
	IssueOrReuseRefreshToken(ctx context.Context, userID int64, ttl time.Duration) (model.RefreshToken, error)
	// RedeemRefreshToken exchanges a live refresh token for a new access token.
	RedeemRefreshToken(ctx context.Context, token string) (string, error)
	// RevokeRefreshToken deletes a refresh token; unknown tokens are ignored.
	RevokeRefreshToken(ctx context.Context, token string) error
	// PurgeExpiredRefreshTokens deletes expired refresh tokens.
	PurgeExpiredRefreshTokens(ctx context.Context) (int64, error)
}

// AuthServiceImpl implements AuthService over user and token repositories.
type AuthServiceImpl struct {
	users      repository.UserRepository
	tokens     repository.TokenRepository
	signKey    []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	lim        limiter.Limiter
	now        func() time.Time
}

var _ AuthService = (*AuthServiceImpl)(nil)

// NewAuthService constructs AuthService with required dependencies.
// Zero TTLs fall back to the defaults; a nil limiter disables rate limiting.
func NewAuthService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	signKey []byte,
	accessTTL, refreshTTL time.Duration,
	lim limiter.Limiter,
) *AuthServiceImpl {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	if lim == nil {
		lim = limiter.Nop{}
	}
	return &AuthServiceImpl{
		users: users, tokens: tokens, signKey: signKey,
		accessTTL: accessTTL, refreshTTL: refreshTTL, lim: lim, now: time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *AuthServiceImpl) WithClock(now func() time.Time) *AuthServiceImpl {
	s.now = now
	return s
}

// Register creates a new user record with a per-user salt.
func (s *AuthServiceImpl) Register(ctx context.Context, login, password string) (model.User, error) {
	if strings.TrimSpace(login) == "" || password == "" {
		return model.User{}, fmt.Errorf("%w: login and password required for registration", errs.ErrValidation)
	}
	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		return model.User{}, err
	}
	u := &model.User{
		Login:   login,
		PwdHash: pkgcrypto.HashPassword([]byte(password), salt),
		Salt:    salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.User{}, err
	}
	return *u, nil
}

// VerifyCredentials performs a hash computation whether or not the login exists.
func (s *AuthServiceImpl) VerifyCredentials(ctx context.Context, login, password string) (model.User, error) {
	u, err := s.users.GetByLogin(ctx, login)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		pkgcrypto.BurnPassword([]byte(password))
		return model.User{}, errs.ErrUnauthorized
	case err != nil:
		return model.User{}, err
	}
	if !pkgcrypto.VerifyPassword([]byte(password), u.Salt, u.PwdHash) {
		return model.User{}, errs.ErrUnauthorized
	}
	return *u, nil
}

// Login authenticates with rate limiting by (login, ip) and issues tokens.
func (s *AuthServiceImpl) Login(ctx context.Context, login, password, ip string) (model.Tokens, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, login, ipHash)
	if err != nil {
		return model.Tokens{}, err
	}
	if !allowed {
		return model.Tokens{}, errs.ErrRateLimited
	}

	u, err := s.VerifyCredentials(ctx, login, password)
	if err != nil {
		if !errors.Is(err, errs.ErrUnauthorized) {
			return model.Tokens{}, err
		}
		if blocked, _, ferr := s.lim.Failure(ctx, login, ipHash); ferr == nil && blocked {
			return model.Tokens{}, errs.ErrRateLimited
		}
		return model.Tokens{}, errs.ErrUnauthorized
	}

	// best-effort
	_ = s.lim.Success(ctx, login, ipHash)

	access, exp, err := s.IssueAccessToken(u.ID, s.accessTTL)
	if err != nil {
		return model.Tokens{}, err
	}
	refresh, err := s.IssueOrReuseRefreshToken(ctx, u.ID, s.refreshTTL)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: access, RefreshToken: refresh.Token, ExpiresAt: exp}, nil
}

// IssueAccessToken creates a signed HS256 JWT for the given subject.
func (s *AuthServiceImpl) IssueAccessToken(userID int64, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}

// ValidateAccessToken distinguishes expired tokens from every other failure.
func (s *AuthServiceImpl) ValidateAccessToken(token string) (int64, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.signKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, errs.ErrTokenExpired
		}
		return 0, errs.ErrUnauthorized
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.ErrUnauthorized
	}
	return id, nil
}

func newRefreshValue() (string, error) {
	u, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(u.Bytes()), nil
}

// IssueOrReuseRefreshToken returns the existing live token unchanged; its
// expiry is fixed at creation and never extended. A non-positive ttl yields
// a token that is already expired.
func (s *AuthServiceImpl) IssueOrReuseRefreshToken(
	ctx context.Context, userID int64, ttl time.Duration,
) (model.RefreshToken, error) {
	value, err := newRefreshValue()
	if err != nil {
		return model.RefreshToken{}, err
	}
	now := s.now()
	return s.tokens.CreateOrGet(ctx, model.RefreshToken{
		Token:     value,
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
	}, now)
}

// RedeemRefreshToken does not rotate the refresh token.
func (s *AuthServiceImpl) RedeemRefreshToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: refresh token required", errs.ErrValidation)
	}
	rt, err := s.tokens.Get(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", errs.ErrUnauthorized
		}
		return "", err
	}
	if !rt.Valid(s.now()) {
		return "", errs.ErrTokenExpired
	}
	access, _, err := s.IssueAccessToken(rt.UserID, s.accessTTL)
	return access, err
}

// RevokeRefreshToken deletes the token if present.
func (s *AuthServiceImpl) RevokeRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: refresh token required", errs.ErrValidation)
	}
	return s.tokens.Delete(ctx, token)
}

// PurgeExpiredRefreshTokens removes every token expired at the current time.
func (s *AuthServiceImpl) PurgeExpiredRefreshTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now())
}
