// Package model defines domain entities used by services and repositories.
package model

import (
	"time"
)

// UnknownAlbum is the album title used when neither tags nor Last.fm provide one.
const UnknownAlbum = "unknown"

// User represents an account. The password is never stored in plaintext.
type User struct {
	ID        int64     // PK
	Login     string    // unique
	PwdHash   []byte    // Argon2id(password, Salt)
	Salt      []byte    // per-user salt
	CreatedAt time.Time // set by DB default
}

// Tokens collects issued access/refresh tokens.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // access token expiry (for diagnostics)
}

// RefreshToken is a persisted, revocable opaque credential. At most one per user.
type RefreshToken struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

// Valid reports whether the token is still live at now.
func (t RefreshToken) Valid(now time.Time) bool { return now.Before(t.ExpiresAt) }

// Artist is a performer; unique by title.
type Artist struct {
	ID    int64
	Title string
}

// Genre is unique by title and linked to albums.
type Genre struct {
	ID    int64
	Title string
}

// Album groups songs; artists and genres are attached through junction rows.
type Album struct {
	ID          int64
	Title       string
	Year        *int
	CoverSmall  *string
	CoverMedium *string
}

// Song is a playable catalog entry.
type Song struct {
	ID            int64
	Title         string
	FilePath      string
	Duration      *int // seconds
	AlbumPosition *int
	ListensCount  int64
	ArtistID      *int64
	AlbumID       *int64
}

// Playlist is an ordered song collection owned by one user.
type Playlist struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	UserID int64  `json:"user_id"`
}

// CursorKey returns the keyset pagination key.
func (p Playlist) CursorKey() int64 { return p.ID }

// SongView is the denormalized read projection returned to clients.
type SongView struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	AlbumPosition *int     `json:"album_position"`
	Duration      *int     `json:"duration"`
	Artists       []string `json:"artists"`
	Album         string   `json:"album"`
	CoverSmall    *string  `json:"cover_small"`
	CoverMedium   *string  `json:"cover_medium"`
}

// CursorKey returns the keyset pagination key.
func (s SongView) CursorKey() int64 { return s.ID }

// PlaylistSongView is a SongView positioned inside a playlist.
type PlaylistSongView struct {
	Position int `json:"position"`
	SongView
}

// CursorKey returns the playlist position, the key playlist pages are ordered by.
func (p PlaylistSongView) CursorKey() int64 { return int64(p.Position) }

// AlbumView is the album projection returned to clients.
type AlbumView struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Year        *int     `json:"year"`
	CoverSmall  *string  `json:"cover_small"`
	CoverMedium *string  `json:"cover_medium"`
	Artists     []string `json:"artists"`
	Listens     int64    `json:"listens"`
}

// CursorKey returns the keyset pagination key.
func (a AlbumView) CursorKey() int64 { return a.ID }

// GenreView is a genre with its aggregate listen count.
type GenreView struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Listens int64  `json:"listens"`
}

// ResolveArtists returns the display artists of a song: the album's artist set
// when the song belongs to an album, otherwise the song's own artist.
func ResolveArtists(hasAlbum bool, albumArtists []string, ownArtist *string) []string {
	if hasAlbum {
		if albumArtists == nil {
			return []string{}
		}
		return albumArtists
	}
	if ownArtist == nil {
		return []string{}
	}
	return []string{*ownArtist}
}

// AlbumTitle returns the album display title, "unknown" when the song has none.
func AlbumTitle(title *string) string {
	if title == nil || *title == "" {
		return UnknownAlbum
	}
	return *title
}
