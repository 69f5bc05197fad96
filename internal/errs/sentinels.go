// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across repo/service layers.
var (
	// ErrValidation indicates missing, blank or malformed input detected before touching the store.
	ErrValidation = errors.New("validation")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSongNotFound narrows ErrNotFound to a missing song inside a playlist operation.
	ErrSongNotFound = fmt.Errorf("song %w", ErrNotFound)

	// ErrForbidden indicates the entity exists but the acting user has no rights over it.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., login taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized indicates a credential mismatch, bad signature or unknown token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates a recognized token past its expiration.
	ErrTokenExpired = errors.New("token expired")

	// ErrNotInPlaylist indicates removal of a song that is not a playlist member.
	ErrNotInPlaylist = errors.New("song is not in playlist")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrExternal indicates a failed call to the external metadata service.
	ErrExternal = errors.New("external service")
)
