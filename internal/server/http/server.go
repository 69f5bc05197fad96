// Package httpserver exposes the music library over a JSON HTTP API.
package httpserver

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/and161185/audio-dementia/internal/service"
)

// Pinger reports store liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// topLimit is the size of the top albums and genres rankings.
const topLimit = 5

// Server wires services into HTTP handlers.
type Server struct {
	auth      service.AuthService
	catalog   service.CatalogService
	playlists service.PlaylistService
	db        Pinger
	log       *zap.Logger
	router    *mux.Router
}

// New constructs the server and registers its routes.
func New(
	auth service.AuthService,
	catalog service.CatalogService,
	playlists service.PlaylistService,
	db Pinger,
	log *zap.Logger,
) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{auth: auth, catalog: catalog, playlists: playlists, db: db, log: log}
	s.routes()
	return s
}

// fallbacks installs JSON 404/405 handlers. Subrouters do not inherit them.
func fallbacks(r *mux.Router) {
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, "Resource not found", nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.Use(Recover(s.log), Logging(s.log))
	fallbacks(r)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	a := r.PathPrefix("/api/public/auth").Subrouter()
	fallbacks(a)
	a.HandleFunc("/register", s.register).Methods(http.MethodPost)
	a.HandleFunc("/token", s.token).Methods(http.MethodPost)
	a.HandleFunc("/token/refresh", s.refresh).Methods(http.MethodPost)
	a.HandleFunc("/token/revoke", s.revoke).Methods(http.MethodPost)

	m := r.PathPrefix("/api/public/media").Subrouter()
	fallbacks(m)
	m.HandleFunc("/genres/top", s.topGenres).Methods(http.MethodGet)
	m.HandleFunc("/albums/top", s.topAlbums).Methods(http.MethodGet)
	m.HandleFunc("/albums/search", s.albumsByTitle).Methods(http.MethodGet)
	m.HandleFunc("/songs/search", s.songsByTitle).Methods(http.MethodGet)
	m.HandleFunc("/songs/artist", s.songsByArtist).Methods(http.MethodGet)
	m.HandleFunc("/songs/album", s.albumSongs).Methods(http.MethodGet)
	m.HandleFunc("/songs/genre", s.genreSongs).Methods(http.MethodGet)
	m.HandleFunc("/songs/playlist", s.playlistSongs).Methods(http.MethodGet)
	m.HandleFunc("/songs/play", s.play).Methods(http.MethodGet)
	m.HandleFunc("/playlists/user", s.requireUser(s.userPlaylists)).Methods(http.MethodGet)
	m.HandleFunc("/playlists/add", s.requireUser(s.createPlaylist)).Methods(http.MethodPut)
	m.HandleFunc("/playlists/add/song", s.requireUser(s.addSong)).Methods(http.MethodPut)
	m.HandleFunc("/playlists/delete/song", s.requireUser(s.removeSong)).Methods(http.MethodDelete)
	m.HandleFunc("/playlists/delete", s.requireUser(s.deletePlaylist)).Methods(http.MethodDelete)

	s.router = r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			s.log.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, "Database is unavailable", nil)
			return
		}
	}
	writeJSON(w, http.StatusOK, "ok", nil)
}
