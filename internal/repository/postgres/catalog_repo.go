package postgres

import (
	"context"
	"errors"

	"github.com/and161185/audio-dementia/internal/errs"
	"github.com/and161185/audio-dementia/internal/model"
	"github.com/and161185/audio-dementia/internal/pagination"
	"github.com/and161185/audio-dementia/internal/repository"
	"github.com/jackc/pgx/v5"
)

// CatalogRepo implements CatalogRepository using PostgreSQL.
type CatalogRepo struct{ db *DB }

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// NewCatalogRepo constructs a catalog repository.
func NewCatalogRepo(db *DB) *CatalogRepo { return &CatalogRepo{db: db} }

func (r *CatalogRepo) songs(ctx context.Context, q string, args ...any) ([]model.SongView, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectSongViews(rows)
}

// SongsByTitle searches song titles.
func (r *CatalogRepo) SongsByTitle(ctx context.Context, substr string, p pagination.Page) ([]model.SongView, error) {
	q := `SELECT` + songViewCols + songViewFrom + `
WHERE s.id > $1 AND s.title ILIKE $2
ORDER BY s.id ASC
LIMIT $3`
	return r.songs(ctx, q, p.After, containsPattern(substr), p.Size)
}

// SongsByArtist searches the song's own artist and the artists of its album.
// EXISTS keeps one row per song even when several album artists match.
func (r *CatalogRepo) SongsByArtist(ctx context.Context, substr string, p pagination.Page) ([]model.SongView, error) {
	q := `SELECT` + songViewCols + songViewFrom + `
WHERE s.id > $1 AND (
  ar.title ILIKE $2
  OR EXISTS (
    SELECT 1 FROM album_artist ma JOIN artist mar ON mar.id = ma.artist_id
    WHERE ma.album_id = s.album_id AND mar.title ILIKE $2))
ORDER BY s.id ASC
LIMIT $3`
	return r.songs(ctx, q, p.After, containsPattern(substr), p.Size)
}

// SongsOfAlbum lists album songs in album order.
func (r *CatalogRepo) SongsOfAlbum(ctx context.Context, albumID int64) ([]model.SongView, error) {
	q := `SELECT` + songViewCols + songViewFrom + `
WHERE s.album_id = $1
ORDER BY s.album_position ASC NULLS LAST, s.id ASC`
	return r.songs(ctx, q, albumID)
}

// SongsOfGenre lists songs on albums tagged with the genre.
func (r *CatalogRepo) SongsOfGenre(ctx context.Context, genreID int64, p pagination.Page) ([]model.SongView, error) {
	q := `SELECT` + songViewCols + songViewFrom + `
WHERE s.id > $2 AND s.album_id IN (SELECT album_id FROM album_genre WHERE genre_id = $1)
ORDER BY s.id ASC
LIMIT $3`
	return r.songs(ctx, q, genreID, p.After, p.Size)
}

const albumViewSelect = `
SELECT al.id, al.title, al.year, al.cover_small, al.cover_medium,
  ARRAY(SELECT ar.title FROM album_artist aa JOIN artist ar ON ar.id = aa.artist_id
        WHERE aa.album_id = al.id ORDER BY ar.id),
  COALESCE((SELECT SUM(s.listens_count) FROM song s WHERE s.album_id = al.id), 0)::bigint AS listens
FROM album al`

func collectAlbumViews(rows pgx.Rows) ([]model.AlbumView, error) {
	defer rows.Close()
	out := []model.AlbumView{}
	for rows.Next() {
		var a model.AlbumView
		if err := rows.Scan(&a.ID, &a.Title, &a.Year, &a.CoverSmall, &a.CoverMedium, &a.Artists, &a.Listens); err != nil {
			return nil, err
		}
		if a.Artists == nil {
			a.Artists = []string{}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AlbumsByTitle searches album titles.
func (r *CatalogRepo) AlbumsByTitle(ctx context.Context, substr string, p pagination.Page) ([]model.AlbumView, error) {
	q := albumViewSelect + `
WHERE al.id > $1 AND al.title ILIKE $2
ORDER BY al.id ASC
LIMIT $3`
	rows, err := r.db.Pool.Query(ctx, q, p.After, containsPattern(substr), p.Size)
	if err != nil {
		return nil, err
	}
	return collectAlbumViews(rows)
}

// TopAlbums ranks albums by total listens; ties go to the lower id.
func (r *CatalogRepo) TopAlbums(ctx context.Context, limit int) ([]model.AlbumView, error) {
	q := albumViewSelect + `
ORDER BY listens DESC, al.id ASC
LIMIT $1`
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	return collectAlbumViews(rows)
}

// TopGenres ranks genres by the listens of songs on their albums; ties go to the lower id.
func (r *CatalogRepo) TopGenres(ctx context.Context, limit int) ([]model.GenreView, error) {
	const q = `
SELECT g.id, g.title, COALESCE(SUM(s.listens_count), 0)::bigint AS listens
FROM genre g
LEFT JOIN album_genre ag ON ag.genre_id = g.id
LEFT JOIN song s ON s.album_id = ag.album_id
GROUP BY g.id, g.title
ORDER BY listens DESC, g.id ASC
LIMIT $1`
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.GenreView{}
	for rows.Next() {
		var g model.GenreView
		if err = rows.Scan(&g.ID, &g.Title, &g.Listens); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetAlbum selects an album by ID.
func (r *CatalogRepo) GetAlbum(ctx context.Context, id int64) (*model.Album, error) {
	const q = `SELECT id, title, year, cover_small, cover_medium FROM album WHERE id=$1`
	var a model.Album
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.Title, &a.Year, &a.CoverSmall, &a.CoverMedium); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GetGenre selects a genre by ID.
func (r *CatalogRepo) GetGenre(ctx context.Context, id int64) (*model.Genre, error) {
	const q = `SELECT id, title FROM genre WHERE id=$1`
	var g model.Genre
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&g.ID, &g.Title); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// SongExists reports whether the song row exists.
func (r *CatalogRepo) SongExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM song WHERE id=$1)`, id).Scan(&ok)
	return ok, err
}

// RecordPlay bumps listens_count in one statement so concurrent plays are never lost.
func (r *CatalogRepo) RecordPlay(ctx context.Context, songID int64) (string, error) {
	const q = `UPDATE song SET listens_count = listens_count + 1 WHERE id=$1 RETURNING file_path`
	var path string
	if err := r.db.Pool.QueryRow(ctx, q, songID).Scan(&path); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	return path, nil
}
