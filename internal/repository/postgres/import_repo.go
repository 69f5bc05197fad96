package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/audio-dementia/internal/errs"
	"github.com/and161185/audio-dementia/internal/model"
	"github.com/and161185/audio-dementia/internal/repository"
	"github.com/jackc/pgx/v5"
)

// ImportRepo implements ImportRepository using PostgreSQL.
type ImportRepo struct{ db *DB }

var _ repository.ImportRepository = (*ImportRepo)(nil)

// NewImportRepo constructs an importer repository.
func NewImportRepo(db *DB) *ImportRepo { return &ImportRepo{db: db} }

// AlbumExists reports whether albumTitle is already linked to artistTitle.
func (r *ImportRepo) AlbumExists(ctx context.Context, albumTitle, artistTitle string) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM album al
  JOIN album_artist aa ON aa.album_id = al.id
  JOIN artist ar ON ar.id = aa.artist_id
  WHERE al.title=$1 AND ar.title=$2)`
	var ok bool
	err := r.db.Pool.QueryRow(ctx, q, albumTitle, artistTitle).Scan(&ok)
	return ok, err
}

const (
	upsertArtist = `INSERT INTO artist (title) VALUES ($1) ON CONFLICT (title) DO UPDATE SET title=EXCLUDED.title RETURNING id`
	upsertGenre  = `INSERT INTO genre (title) VALUES ($1) ON CONFLICT (title) DO UPDATE SET title=EXCLUDED.title RETURNING id`
	findAlbum    = `
SELECT al.id FROM album al
JOIN album_artist aa ON aa.album_id = al.id
WHERE al.title=$1 AND aa.artist_id=$2
ORDER BY al.id
LIMIT 1`
	insertAlbum     = `INSERT INTO album (title, cover_small, cover_medium) VALUES ($1, $2, $3) RETURNING id`
	linkAlbumArtist = `INSERT INTO album_artist (artist_id, album_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	linkAlbumGenre  = `INSERT INTO album_genre (album_id, genre_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	insertSong      = `
INSERT INTO song (title, file_path, duration, album_position, artist_id, album_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
)

// ImportSong writes one song and everything it references in a single
// transaction. The album is looked up by title and first artist.
func (r *ImportRepo) ImportSong(ctx context.Context, item repository.ImportItem) (songID int64, err error) {
	if item.Title == "" || len(item.Artists) == 0 {
		return 0, fmt.Errorf("%w: song needs a title and at least one artist", errs.ErrValidation)
	}
	album := item.Album
	if album == "" {
		album = model.UnknownAlbum
	}

	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
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

	artistIDs := make([]int64, 0, len(item.Artists))
	for _, title := range item.Artists {
		var id int64
		if err = tx.QueryRow(ctx, upsertArtist, title).Scan(&id); err != nil {
			return 0, fmt.Errorf("artist %q: %w", title, err)
		}
		artistIDs = append(artistIDs, id)
	}

	var albumID int64
	err = tx.QueryRow(ctx, findAlbum, album, artistIDs[0]).Scan(&albumID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if err = tx.QueryRow(ctx, insertAlbum, album, item.CoverSmall, item.CoverMedium).Scan(&albumID); err != nil {
			return 0, fmt.Errorf("album %q: %w", album, err)
		}
	case err != nil:
		return 0, err
	}

	for _, id := range artistIDs {
		if _, err = tx.Exec(ctx, linkAlbumArtist, id, albumID); err != nil {
			return 0, err
		}
	}
	for _, title := range item.Genres {
		var gid int64
		if err = tx.QueryRow(ctx, upsertGenre, title).Scan(&gid); err != nil {
			return 0, fmt.Errorf("genre %q: %w", title, err)
		}
		if _, err = tx.Exec(ctx, linkAlbumGenre, albumID, gid); err != nil {
			return 0, err
		}
	}

	err = tx.QueryRow(ctx, insertSong,
		item.Title, item.FilePath, item.Duration, item.AlbumPosition, artistIDs[0], albumID,
	).Scan(&songID)
	if err != nil {
		return 0, fmt.Errorf("song %q: %w", item.Title, err)
	}
	return songID, nil
}
