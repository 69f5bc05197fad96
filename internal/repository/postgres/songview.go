package postgres

import (
	"github.com/and161185/audio-dementia/internal/model"
	"github.com/jackc/pgx/v5"
)

// songViewCols selects everything needed to build a model.SongView. Album
// artists are aggregated per song so the result has exactly one row per song.
const songViewCols = `
  s.id, s.title, s.album_position, s.duration,
  s.album_id IS NOT NULL,
  ARRAY(SELECT aar.title FROM album_artist aa JOIN artist aar ON aar.id = aa.artist_id
        WHERE aa.album_id = s.album_id ORDER BY aar.id),
  ar.title, al.title, al.cover_small, al.cover_medium`

const songViewFrom = `
FROM song s
LEFT JOIN artist ar ON ar.id = s.artist_id
LEFT JOIN album al ON al.id = s.album_id`

// scanSongView scans the songViewCols columns, after any leading dest columns.
func scanSongView(row pgx.Row, lead ...any) (model.SongView, error) {
	var (
		v            model.SongView
		hasAlbum     bool
		albumArtists []string
		ownArtist    *string
		albumTitle   *string
	)
	dest := append(lead,
		&v.ID, &v.Title, &v.AlbumPosition, &v.Duration,
		&hasAlbum, &albumArtists, &ownArtist, &albumTitle, &v.CoverSmall, &v.CoverMedium,
	)
	if err := row.Scan(dest...); err != nil {
		return model.SongView{}, err
	}
	v.Artists = model.ResolveArtists(hasAlbum, albumArtists, ownArtist)
	v.Album = model.AlbumTitle(albumTitle)
	return v, nil
}

func collectSongViews(rows pgx.Rows) ([]model.SongView, error) {
	defer rows.Close()
	out := []model.SongView{}
	for rows.Next() {
		v, err := scanSongView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
