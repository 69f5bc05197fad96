package repository

import (
	"context"

	"github.com/and161185/audio-dementia/internal/model"
	"github.com/and161185/audio-dementia/internal/pagination"
)

// PlaylistRepository stores playlists and their ordered membership.
type PlaylistRepository interface {
	// Create inserts a playlist owned by userID.
	Create(ctx context.Context, userID int64, title string) (*model.Playlist, error)
	// Get loads a playlist by ID.
	Get(ctx context.Context, id int64) (*model.Playlist, error)
	// ListByUser returns the user's playlists ordered by id.
	ListByUser(ctx context.Context, userID int64) ([]model.Playlist, error)
	// AddSong appends the song at position count+1 and returns that position.
	AddSong(ctx context.Context, playlistID, songID int64) (int, error)
	// RemoveSong drops the first occurrence of the song and closes the position gap.
	RemoveSong(ctx context.Context, playlistID, songID int64) error
	// Songs returns members with position > p.After ordered by position.
	Songs(ctx context.Context, playlistID int64, p pagination.Page) ([]model.PlaylistSongView, error)
	// Delete removes the playlist and, by cascade, its membership rows.
	Delete(ctx context.Context, playlistID int64) error
}
