package repository

import (
	"context"

	"github.com/and161185/audio-dementia/internal/model"
	"github.com/and161185/audio-dementia/internal/pagination"
)

// CatalogRepository provides read access to songs, albums and genres.
type CatalogRepository interface {
	// SongsByTitle returns songs whose title contains substr (case-insensitive), ordered by id.
	SongsByTitle(ctx context.Context, substr string, p pagination.Page) ([]model.SongView, error)
	// SongsByArtist matches the song's own artist or any artist of its album.
	SongsByArtist(ctx context.Context, substr string, p pagination.Page) ([]model.SongView, error)
	// AlbumsByTitle returns albums whose title contains substr, ordered by id.
	AlbumsByTitle(ctx context.Context, substr string, p pagination.Page) ([]model.AlbumView, error)
	// TopAlbums ranks albums by the sum of their songs' listens.
	TopAlbums(ctx context.Context, limit int) ([]model.AlbumView, error)
	// TopGenres ranks genres by the sum of listens of songs on their albums.
	TopGenres(ctx context.Context, limit int) ([]model.GenreView, error)
	// SongsOfAlbum returns album songs ordered by album position.
	SongsOfAlbum(ctx context.Context, albumID int64) ([]model.SongView, error)
	// SongsOfGenre returns songs of albums tagged with the genre, ordered by id.
	SongsOfGenre(ctx context.Context, genreID int64, p pagination.Page) ([]model.SongView, error)
	// GetAlbum loads an album by ID.
	GetAlbum(ctx context.Context, id int64) (*model.Album, error)
	// GetGenre loads a genre by ID.
	GetGenre(ctx context.Context, id int64) (*model.Genre, error)
	// SongExists reports whether a song with the ID exists.
	SongExists(ctx context.Context, id int64) (bool, error)
	// RecordPlay increments the listen counter by one and returns the file path.
	RecordPlay(ctx context.Context, songID int64) (string, error)
}

// ImportItem is one audio file prepared for insertion into the catalog.
type ImportItem struct {
	Title         string
	FilePath      string
	Duration      *int
	AlbumPosition *int
	Artists       []string // first one becomes the song's own artist
	Genres        []string
	Album         string
	CoverSmall    *string
	CoverMedium   *string
}

// ImportRepository writes importer results.
type ImportRepository interface {
	// AlbumExists reports whether an album with the title is linked to the artist.
	AlbumExists(ctx context.Context, albumTitle, artistTitle string) (bool, error)
	// ImportSong inserts the song with its artists, album, genres and links atomically.
	ImportSong(ctx context.Context, item ImportItem) (songID int64, err error)
}
