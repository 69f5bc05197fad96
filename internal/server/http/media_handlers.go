package httpserver

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/audio-dementia/internal/pagination"
)

func (s *Server) topGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.catalog.TopGenres(r.Context(), topLimit)
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	writeJSON(w, http.StatusOK, fmt.Sprintf("Top %d genres", topLimit), map[string]any{"genres": genres})
}

func (s *Server) topAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := s.catalog.TopAlbums(r.Context(), topLimit)
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	writeJSON(w, http.StatusOK, fmt.Sprintf("Top %d albums", topLimit), map[string]any{"albums": albums})
}

// searchArgs reads a non-blank title and the page window.
func searchArgs(r *http.Request) (string, pagination.Page, error) {
	p, err := readParams(r)
	if err != nil {
		return "", pagination.Page{}, &paramError{name: "title", kind: "str"}
	}
	title, err := p.str("title")
	if err != nil {
		return "", pagination.Page{}, err
	}
	page, err := p.page()
	if err != nil {
		return "", pagination.Page{}, err
	}
	return title, page, nil
}

func (s *Server) albumsByTitle(w http.ResponseWriter, r *http.Request) {
	title, page, err := searchArgs(r)
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	albums, err := s.catalog.AlbumsByTitle(r.Context(), title, page)
	if err != nil {
		s.fail(w, r, err, failure{validation: msgEmptyTitle})
		return
	}
	writeJSON(w, http.StatusOK, "Albums matching title "+title, map[string]any{"albums": albums})
}

func (s *Server) songsByTitle(w http.ResponseWriter, r *http.Request) {
	title, page, err := searchArgs(r)
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	songs, err := s.catalog.SongsByTitle(r.Context(), title, page)
	if err != nil {
		s.fail(w, r, err, failure{validation: msgEmptyTitle})
		return
	}
	writeJSON(w, http.StatusOK, "Songs matching title "+title, map[string]any{"songs": songs})
}

func (s *Server) songsByArtist(w http.ResponseWriter, r *http.Request) {
	title, page, err := searchArgs(r)
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	songs, err := s.catalog.SongsByArtist(r.Context(), title, page)
	if err != nil {
		s.fail(w, r, err, failure{validation: msgEmptyTitle})
		return
	}
	writeJSON(w, http.StatusOK, "Songs by artist matching title "+title, map[string]any{"songs": songs})
}

func (s *Server) albumSongs(w http.ResponseWriter, r *http.Request) {
	p, err := readParams(r)
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	id, err := p.integer("id")
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	album, songs, err := s.catalog.SongsOfAlbum(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, failure{notFound: "Album not found"})
		return
	}
	writeJSON(w, http.StatusOK, "Songs from album "+album.Title, map[string]any{"songs": songs})
}

// idAndPage reads a required id plus the page window.
func idAndPage(r *http.Request) (int64, pagination.Page, error) {
	p, err := readParams(r)
	if err != nil {
		return 0, pagination.Page{}, &paramError{name: "id", kind: "int"}
	}
	id, err := p.integer("id")
	if err != nil {
		return 0, pagination.Page{}, err
	}
	page, err := p.page()
	if err != nil {
		return 0, pagination.Page{}, err
	}
	return id, page, nil
}

func (s *Server) genreSongs(w http.ResponseWriter, r *http.Request) {
	id, page, err := idAndPage(r)
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	genre, songs, err := s.catalog.SongsOfGenre(r.Context(), id, page)
	if err != nil {
		s.fail(w, r, err, failure{notFound: "Genre not found"})
		return
	}
	writeJSON(w, http.StatusOK, "Songs from genre "+genre.Title, map[string]any{"songs": songs})
}

func (s *Server) playlistSongs(w http.ResponseWriter, r *http.Request) {
	id, page, err := idAndPage(r)
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	pl, songs, err := s.playlists.Songs(r.Context(), id, page)
	if err != nil {
		s.fail(w, r, err, failure{notFound: "Playlist not found"})
		return
	}
	writeJSON(w, http.StatusOK, "Songs from playlist "+pl.Title, map[string]any{"songs": songs})
}

// play counts a listen and streams the file. Range requests are served, and
// every request counts.
func (s *Server) play(w http.ResponseWriter, r *http.Request) {
	p, err := readParams(r)
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	id, err := p.integer("id")
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	path, err := s.catalog.RecordPlay(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, failure{notFound: "Invalid id provided"})
		return
	}

	f, err := os.Open(path)
	if err != nil {
		s.log.Error("audio file unavailable", zap.Int64("song", id), zap.String("file", path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, msgInternal, nil)
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeContent(w, r, filepath.Base(path), st.ModTime(), f)
}

func (s *Server) userPlaylists(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserIDFromCtx(r.Context())
	p, err := readParams(r)
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	owner, list, err := s.playlists.ListByOwner(r.Context(), actor, strings.TrimSpace(p.optStr("username")))
	if err != nil {
		s.fail(w, r, err, failure{notFound: "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, "Playlists of user "+owner.Login, map[string]any{"playlists": list})
}

func (s *Server) createPlaylist(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserIDFromCtx(r.Context())
	p, err := readParams(r)
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	title, err := p.str("title")
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	pl, err := s.playlists.Create(r.Context(), actor, title)
	if err != nil {
		s.fail(w, r, err, failure{validation: msgEmptyTitle, notFound: "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, fmt.Sprintf("New playlist %s has been created.", pl.Title), map[string]any{"playlist": pl})
}

// membershipArgs reads playlist_id and song_id.
func membershipArgs(r *http.Request) (playlistID, songID int64, err error) {
	p, err := readParams(r)
	if err != nil {
		return 0, 0, &paramError{name: "playlist_id", kind: "int"}
	}
	if playlistID, err = p.integer("playlist_id"); err != nil {
		return 0, 0, err
	}
	if songID, err = p.integer("song_id"); err != nil {
		return 0, 0, err
	}
	return playlistID, songID, nil
}

func membershipFailure(playlistID, songID int64) failure {
	return failure{
		notFound:     fmt.Sprintf("Playlist with id %d is not found", playlistID),
		songNotFound: fmt.Sprintf("Song with id %d is not found", songID),
	}
}

func (s *Server) addSong(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserIDFromCtx(r.Context())
	pid, sid, err := membershipArgs(r)
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	pos, err := s.playlists.AddSong(r.Context(), actor, pid, sid)
	if err != nil {
		s.fail(w, r, err, membershipFailure(pid, sid))
		return
	}
	writeJSON(w, http.StatusOK, fmt.Sprintf("Song %d was added to playlist %d", sid, pid), map[string]any{"position": pos})
}

func (s *Server) removeSong(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserIDFromCtx(r.Context())
	pid, sid, err := membershipArgs(r)
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	if err := s.playlists.RemoveSong(r.Context(), actor, pid, sid); err != nil {
		s.fail(w, r, err, membershipFailure(pid, sid))
		return
	}
	writeJSON(w, http.StatusOK, fmt.Sprintf("Song %d was deleted from playlist %d", sid, pid), nil)
}

func (s *Server) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserIDFromCtx(r.Context())
	p, err := readParams(r)
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	id, err := p.integer("id")
	if err != nil {
		s.fail(w, r, err, failure{})
		return
	}
	if err := s.playlists.Delete(r.Context(), actor, id); err != nil {
		s.fail(w, r, err, failure{notFound: fmt.Sprintf("Playlist with id %d is not found", id)})
		return
	}
	writeJSON(w, http.StatusOK, fmt.Sprintf("Playlist with id %d is deleted", id), nil)
}
