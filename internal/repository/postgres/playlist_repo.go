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

// PlaylistRepo implements PlaylistRepository using PostgreSQL.
type PlaylistRepo struct{ db *DB }

var _ repository.PlaylistRepository = (*PlaylistRepo)(nil)

// NewPlaylistRepo constructs a playlist repository.
func NewPlaylistRepo(db *DB) *PlaylistRepo { return &PlaylistRepo{db: db} }

// Create inserts a playlist row.
func (r *PlaylistRepo) Create(ctx context.Context, userID int64, title string) (*model.Playlist, error) {
	const q = `INSERT INTO playlist (title, user_id) VALUES ($1, $2) RETURNING id`
	p := model.Playlist{Title: title, UserID: userID}
	if err := r.db.Pool.QueryRow(ctx, q, title, userID).Scan(&p.ID); err != nil {
		if isForeignKeyViolation(err) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Get selects a playlist by ID.
func (r *PlaylistRepo) Get(ctx context.Context, id int64) (*model.Playlist, error) {
	const q = `SELECT id, title, user_id FROM playlist WHERE id=$1`
	var p model.Playlist
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Title, &p.UserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByUser returns all playlists of the user ordered by id.
func (r *PlaylistRepo) ListByUser(ctx context.Context, userID int64) ([]model.Playlist, error) {
	const q = `SELECT id, title, user_id FROM playlist WHERE user_id=$1 ORDER BY id ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Playlist{}
	for rows.Next() {
		var p model.Playlist
		if err = rows.Scan(&p.ID, &p.Title, &p.UserID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const lockPlaylist = `SELECT id FROM playlist WHERE id=$1 FOR UPDATE`

// AddSong locks the playlist row so concurrent appends observe each other's
// count and never share a position.
func (r *PlaylistRepo) AddSong(ctx context.Context, playlistID, songID int64) (pos int, err error) {
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

	var id int64
	if err = tx.QueryRow(ctx, lockPlaylist, playlistID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}

	const cnt = `SELECT COUNT(*) FROM playlist_song WHERE playlist_id=$1`
	var count int64
	if err = tx.QueryRow(ctx, cnt, playlistID).Scan(&count); err != nil {
		return 0, err
	}
	pos = int(count) + 1

	const ins = `INSERT INTO playlist_song (playlist_id, song_id, song_position) VALUES ($1, $2, $3)`
	if _, err = tx.Exec(ctx, ins, playlistID, songID, pos); err != nil {
		if isForeignKeyViolation(err) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}
	return pos, nil
}

// RemoveSong deletes the lowest-position occurrence of the song and shifts
// later members down by one so positions stay 1..N.
func (r *PlaylistRepo) RemoveSong(ctx context.Context, playlistID, songID int64) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
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

	var id int64
	if err = tx.QueryRow(ctx, lockPlaylist, playlistID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotFound
		}
		return err
	}

	const del = `
DELETE FROM playlist_song
WHERE id = (
  SELECT id FROM playlist_song
  WHERE playlist_id=$1 AND song_id=$2
  ORDER BY song_position ASC
  LIMIT 1)
RETURNING song_position`
	var removed int
	if err = tx.QueryRow(ctx, del, playlistID, songID).Scan(&removed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotInPlaylist
		}
		return err
	}

	const shift = `
UPDATE playlist_song SET song_position = song_position - 1
WHERE playlist_id=$1 AND song_position > $2`
	_, err = tx.Exec(ctx, shift, playlistID, removed)
	return err
}

// Songs returns one page of members ordered by position.
func (r *PlaylistRepo) Songs(
	ctx context.Context, playlistID int64, p pagination.Page,
) ([]model.PlaylistSongView, error) {
	q := `SELECT ps.song_position,` + songViewCols + `
FROM playlist_song ps
JOIN song s ON s.id = ps.song_id
LEFT JOIN artist ar ON ar.id = s.artist_id
LEFT JOIN album al ON al.id = s.album_id
WHERE ps.playlist_id=$1 AND ps.song_position > $2
ORDER BY ps.song_position ASC
LIMIT $3`
	rows, err := r.db.Pool.Query(ctx, q, playlistID, p.After, p.Size)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PlaylistSongView{}
	for rows.Next() {
		var pos int
		v, err := scanSongView(rows, &pos)
		if err != nil {
			return nil, err
		}
		out = append(out, model.PlaylistSongView{Position: pos, SongView: v})
	}
	return out, rows.Err()
}

// Delete removes a playlist; membership rows go with it via ON DELETE CASCADE.
func (r *PlaylistRepo) Delete(ctx context.Context, playlistID int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM playlist WHERE id=$1`, playlistID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
