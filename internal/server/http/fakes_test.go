package httpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/and161185/audio-dementia/internal/errs"
	"github.com/and161185/audio-dementia/internal/model"
	"github.com/and161185/audio-dementia/internal/pagination"
	"github.com/and161185/audio-dementia/internal/service"
)

var errStore = errors.New("connection reset by peer")

type fakeAuth struct {
	mu      sync.Mutex
	revoked []string
	lastIP  string
}

var _ service.AuthService = (*fakeAuth)(nil)

func (f *fakeAuth) Register(_ context.Context, login, _ string) (model.User, error) {
	if login == "taken" {
		return model.User{}, errs.ErrAlreadyExists
	}
	return model.User{ID: 1, Login: login}, nil
}

func (f *fakeAuth) VerifyCredentials(context.Context, string, string) (model.User, error) {
	return model.User{}, errs.ErrUnauthorized
}

func (f *fakeAuth) Login(_ context.Context, login, password, ip string) (model.Tokens, error) {
	f.mu.Lock()
	f.lastIP = ip
	f.mu.Unlock()
	switch {
	case login == "blocked":
		return model.Tokens{}, errs.ErrRateLimited
	case login == "alice" && password == "pw123":
		return model.Tokens{AccessToken: "acc", RefreshToken: "ref"}, nil
	default:
		return model.Tokens{}, errs.ErrUnauthorized
	}
}

func (f *fakeAuth) IssueAccessToken(int64, time.Duration) (string, time.Time, error) {
	return "acc", time.Time{}, nil
}

func (f *fakeAuth) ValidateAccessToken(token string) (int64, error) {
	switch token {
	case "good":
		return 7, nil
	case "old":
		return 0, errs.ErrTokenExpired
	default:
		return 0, errs.ErrUnauthorized
	}
}

func (f *fakeAuth) IssueOrReuseRefreshToken(context.Context, int64, time.Duration) (model.RefreshToken, error) {
	return model.RefreshToken{}, nil
}

func (f *fakeAuth) RedeemRefreshToken(_ context.Context, token string) (string, error) {
	switch token {
	case "live":
		return "acc2", nil
	case "stale":
		return "", errs.ErrTokenExpired
	default:
		return "", errs.ErrUnauthorized
	}
}

func (f *fakeAuth) RevokeRefreshToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, token)
	return nil
}

func (f *fakeAuth) PurgeExpiredRefreshTokens(context.Context) (int64, error) { return 0, nil }

type fakeCatalog struct {
	playPath string
	lastPage pagination.Page
	plays    int
}

var _ service.CatalogService = (*fakeCatalog)(nil)

func blank(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: blank", errs.ErrValidation)
	}
	return nil
}

func (f *fakeCatalog) SongsByTitle(_ context.Context, title string, p pagination.Page) ([]model.SongView, error) {
	if err := blank(title); err != nil {
		return nil, err
	}
	f.lastPage = p
	if title == "none" {
		return []model.SongView{}, nil
	}
	return []model.SongView{{ID: 3, Title: "Song " + title, Artists: []string{"A"}, Album: "Blue"}}, nil
}

func (f *fakeCatalog) SongsByArtist(_ context.Context, artist string, p pagination.Page) ([]model.SongView, error) {
	if err := blank(artist); err != nil {
		return nil, err
	}
	f.lastPage = p
	return []model.SongView{{ID: 4, Title: "By " + artist}}, nil
}

func (f *fakeCatalog) AlbumsByTitle(_ context.Context, title string, p pagination.Page) ([]model.AlbumView, error) {
	if err := blank(title); err != nil {
		return nil, err
	}
	f.lastPage = p
	return []model.AlbumView{{ID: 1, Title: "Blue"}}, nil
}

func (f *fakeCatalog) TopAlbums(_ context.Context, limit int) ([]model.AlbumView, error) {
	return []model.AlbumView{{ID: 1, Title: "Blue", Listens: int64(limit)}}, nil
}

func (f *fakeCatalog) TopGenres(context.Context, int) ([]model.GenreView, error) {
	return nil, errStore
}

func (f *fakeCatalog) SongsOfAlbum(_ context.Context, albumID int64) (model.Album, []model.SongView, error) {
	if albumID != 1 {
		return model.Album{}, nil, errs.ErrNotFound
	}
	return model.Album{ID: 1, Title: "Blue"}, []model.SongView{{ID: 3}}, nil
}

func (f *fakeCatalog) SongsOfGenre(_ context.Context, genreID int64, p pagination.Page) (model.Genre, []model.SongView, error) {
	if genreID != 2 {
		return model.Genre{}, nil, errs.ErrNotFound
	}
	f.lastPage = p
	return model.Genre{ID: 2, Title: "Rock"}, []model.SongView{}, nil
}

func (f *fakeCatalog) RecordPlay(_ context.Context, songID int64) (string, error) {
	if songID != 1 {
		return "", errs.ErrNotFound
	}
	f.plays++
	return f.playPath, nil
}

type fakePlaylists struct {
	mu     sync.Mutex
	owners map[int64]int64 // playlist -> owner
	songs  map[int64]bool
	count  map[int64]int
}

var _ service.PlaylistService = (*fakePlaylists)(nil)

func newFakePlaylists() *fakePlaylists {
	return &fakePlaylists{
		owners: map[int64]int64{10: 7, 11: 8},
		songs:  map[int64]bool{1: true, 2: true},
		count:  map[int64]int{},
	}
}

func (f *fakePlaylists) Create(_ context.Context, actorID int64, title string) (model.Playlist, error) {
	if err := blank(title); err != nil {
		return model.Playlist{}, err
	}
	return model.Playlist{ID: 12, Title: title, UserID: actorID}, nil
}

func (f *fakePlaylists) check(actorID, playlistID, songID int64) error {
	owner, ok := f.owners[playlistID]
	if !ok {
		return errs.ErrNotFound
	}
	if owner != actorID {
		return errs.ErrForbidden
	}
	if !f.songs[songID] {
		return fmt.Errorf("song %d: %w", songID, errs.ErrSongNotFound)
	}
	return nil
}

func (f *fakePlaylists) AddSong(_ context.Context, actorID, playlistID, songID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(actorID, playlistID, songID); err != nil {
		return 0, err
	}
	f.count[playlistID]++
	return f.count[playlistID], nil
}

func (f *fakePlaylists) RemoveSong(_ context.Context, actorID, playlistID, songID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(actorID, playlistID, songID); err != nil {
		return err
	}
	if songID == 2 {
		return errs.ErrNotInPlaylist
	}
	return nil
}

func (f *fakePlaylists) Songs(_ context.Context, playlistID int64, _ pagination.Page) (model.Playlist, []model.PlaylistSongView, error) {
	if _, ok := f.owners[playlistID]; !ok {
		return model.Playlist{}, nil, errs.ErrNotFound
	}
	return model.Playlist{ID: playlistID, Title: "Faves"}, []model.PlaylistSongView{
		{Position: 1, SongView: model.SongView{ID: 1, Title: "s1"}},
	}, nil
}

func (f *fakePlaylists) Delete(_ context.Context, actorID, playlistID int64) error {
	owner, ok := f.owners[playlistID]
	if !ok {
		return errs.ErrNotFound
	}
	if owner != actorID {
		return errs.ErrForbidden
	}
	return nil
}

func (f *fakePlaylists) ListByOwner(_ context.Context, actorID int64, login string) (model.User, []model.Playlist, error) {
	switch login {
	case "":
		return model.User{ID: actorID, Login: "alice"}, []model.Playlist{{ID: 10, Title: "Faves", UserID: actorID}}, nil
	case "bob":
		return model.User{ID: 8, Login: "bob"}, []model.Playlist{}, nil
	default:
		return model.User{}, nil, errs.ErrNotFound
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }
