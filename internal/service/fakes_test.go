package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/and161185/audio-dementia/internal/errs"
	"github.com/and161185/audio-dementia/internal/limiter"
	"github.com/and161185/audio-dementia/internal/model"
	"github.com/and161185/audio-dementia/internal/pagination"
	"github.com/and161185/audio-dementia/internal/repository"
)

type fakeUsers struct {
	mu     sync.Mutex
	byName map[string]*model.User
	nextID int64

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.byName == nil {
		f.byName = map[string]*model.User{}
	}
	if _, exists := f.byName[u.Login]; exists {
		return errs.ErrAlreadyExists
	}
	f.nextID++
	u.ID = f.nextID
	cpy := *u
	f.byName[u.Login] = &cpy
	return nil
}
func (f *fakeUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}
func (f *fakeUsers) GetByLogin(_ context.Context, login string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[login]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

// fakeTokens mirrors the one-row-per-user semantics of refresh_token.
type fakeTokens struct {
	mu     sync.Mutex
	byUser map[int64]model.RefreshToken

	createErr error
}

var _ repository.TokenRepository = (*fakeTokens)(nil)

func (f *fakeTokens) CreateOrGet(_ context.Context, c model.RefreshToken, now time.Time) (model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return model.RefreshToken{}, f.createErr
	}
	if f.byUser == nil {
		f.byUser = map[int64]model.RefreshToken{}
	}
	if cur, ok := f.byUser[c.UserID]; ok && cur.Valid(now) {
		return cur, nil
	}
	f.byUser[c.UserID] = c
	return c, nil
}
func (f *fakeTokens) Get(_ context.Context, token string) (model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byUser {
		if t.Token == token {
			return t, nil
		}
	}
	return model.RefreshToken{}, errs.ErrNotFound
}
func (f *fakeTokens) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for uid, t := range f.byUser {
		if t.Token == token {
			delete(f.byUser, uid)
		}
	}
	return nil
}
func (f *fakeTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for uid, t := range f.byUser {
		if !t.Valid(now) {
			delete(f.byUser, uid)
			n++
		}
	}
	return n, nil
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

type member struct {
	songID int64
	pos    int
}

// fakePlaylists keeps membership ordered and dense like PlaylistRepo.
type fakePlaylists struct {
	mu        sync.Mutex
	nextID    int64
	playlists map[int64]model.Playlist
	members   map[int64][]member
	songs     map[int64]model.SongView
}

var _ repository.PlaylistRepository = (*fakePlaylists)(nil)

func newFakePlaylists(songs ...model.SongView) *fakePlaylists {
	f := &fakePlaylists{
		playlists: map[int64]model.Playlist{},
		members:   map[int64][]member{},
		songs:     map[int64]model.SongView{},
	}
	for _, s := range songs {
		f.songs[s.ID] = s
	}
	return f
}

func (f *fakePlaylists) Create(_ context.Context, userID int64, title string) (*model.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p := model.Playlist{ID: f.nextID, Title: title, UserID: userID}
	f.playlists[p.ID] = p
	return &p, nil
}
func (f *fakePlaylists) Get(_ context.Context, id int64) (*model.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playlists[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}
func (f *fakePlaylists) ListByUser(_ context.Context, userID int64) ([]model.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Playlist{}
	for _, p := range f.playlists {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
func (f *fakePlaylists) AddSong(_ context.Context, playlistID, songID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.playlists[playlistID]; !ok {
		return 0, errs.ErrNotFound
	}
	if _, ok := f.songs[songID]; !ok {
		return 0, errs.ErrNotFound
	}
	pos := len(f.members[playlistID]) + 1
	f.members[playlistID] = append(f.members[playlistID], member{songID: songID, pos: pos})
	return pos, nil
}
func (f *fakePlaylists) RemoveSong(_ context.Context, playlistID, songID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ms := f.members[playlistID]
	for i, m := range ms {
		if m.songID == songID {
			rest := append([]member{}, ms[:i]...)
			for _, t := range ms[i+1:] {
				rest = append(rest, member{songID: t.songID, pos: t.pos - 1})
			}
			f.members[playlistID] = rest
			return nil
		}
	}
	return errs.ErrNotInPlaylist
}
func (f *fakePlaylists) Songs(_ context.Context, playlistID int64, p pagination.Page) ([]model.PlaylistSongView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.PlaylistSongView{}
	for _, m := range f.members[playlistID] {
		if int64(m.pos) <= p.After {
			continue
		}
		out = append(out, model.PlaylistSongView{Position: m.pos, SongView: f.songs[m.songID]})
		if len(out) == p.Size {
			break
		}
	}
	return out, nil
}
func (f *fakePlaylists) Delete(_ context.Context, playlistID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.playlists[playlistID]; !ok {
		return errs.ErrNotFound
	}
	delete(f.playlists, playlistID)
	delete(f.members, playlistID)
	return nil
}

func (f *fakePlaylists) positions(playlistID int64) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []int{}
	for _, m := range f.members[playlistID] {
		out = append(out, m.pos)
	}
	return out
}

type fakeSong struct {
	view    model.SongView
	path    string
	listens int64
	albumID int64
	artist  string
}

// fakeCatalog is an in-memory CatalogRepository with keyset semantics.
type fakeCatalog struct {
	mu          sync.Mutex
	songs       []*fakeSong // ascending by id
	albums      map[int64]model.Album
	genres      map[int64]model.Genre
	albumGenres map[int64][]int64 // genre -> albums

	topAlbumCalls int
	topGenreCalls int
	err           error
}

var _ repository.CatalogRepository = (*fakeCatalog)(nil)

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		albums:      map[int64]model.Album{},
		genres:      map[int64]model.Genre{},
		albumGenres: map[int64][]int64{},
	}
}

func (f *fakeCatalog) addSong(id int64, title, artist string, albumID int64) {
	f.songs = append(f.songs, &fakeSong{
		view:    model.SongView{ID: id, Title: title, Artists: []string{artist}, Album: model.UnknownAlbum},
		path:    "/media/added/" + title + ".mp3",
		albumID: albumID,
		artist:  artist,
	})
	sort.Slice(f.songs, func(i, j int) bool { return f.songs[i].view.ID < f.songs[j].view.ID })
}

func (f *fakeCatalog) page(p pagination.Page, match func(*fakeSong) bool) []model.SongView {
	out := []model.SongView{}
	for _, s := range f.songs {
		if s.view.ID <= p.After || !match(s) {
			continue
		}
		out = append(out, s.view)
		if len(out) == p.Size {
			break
		}
	}
	return out
}

func contains(s, sub string) bool { return strings.Contains(strings.ToLower(s), strings.ToLower(sub)) }

func (f *fakeCatalog) SongsByTitle(_ context.Context, substr string, p pagination.Page) ([]model.SongView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page(p, func(s *fakeSong) bool { return contains(s.view.Title, substr) }), f.err
}
func (f *fakeCatalog) SongsByArtist(_ context.Context, substr string, p pagination.Page) ([]model.SongView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page(p, func(s *fakeSong) bool { return contains(s.artist, substr) }), f.err
}
func (f *fakeCatalog) AlbumsByTitle(_ context.Context, substr string, p pagination.Page) ([]model.AlbumView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.albums))
	for id := range f.albums {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := []model.AlbumView{}
	for _, id := range ids {
		a := f.albums[id]
		if id <= p.After || !contains(a.Title, substr) {
			continue
		}
		out = append(out, model.AlbumView{ID: a.ID, Title: a.Title, Artists: []string{}})
		if len(out) == p.Size {
			break
		}
	}
	return out, f.err
}
func (f *fakeCatalog) TopAlbums(_ context.Context, limit int) ([]model.AlbumView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topAlbumCalls++
	out := []model.AlbumView{}
	for id, a := range f.albums {
		var sum int64
		for _, s := range f.songs {
			if s.albumID == id {
				sum += s.listens
			}
		}
		out = append(out, model.AlbumView{ID: a.ID, Title: a.Title, Artists: []string{}, Listens: sum})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Listens != out[j].Listens {
			return out[i].Listens > out[j].Listens
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, f.err
}
func (f *fakeCatalog) TopGenres(_ context.Context, limit int) ([]model.GenreView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topGenreCalls++
	out := []model.GenreView{}
	for id, g := range f.genres {
		out = append(out, model.GenreView{ID: id, Title: g.Title})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, f.err
}
func (f *fakeCatalog) SongsOfAlbum(_ context.Context, albumID int64) ([]model.SongView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page(pagination.Page{Size: len(f.songs) + 1}, func(s *fakeSong) bool { return s.albumID == albumID }), f.err
}
func (f *fakeCatalog) SongsOfGenre(_ context.Context, genreID int64, p pagination.Page) ([]model.SongView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	albums := f.albumGenres[genreID]
	return f.page(p, func(s *fakeSong) bool {
		for _, a := range albums {
			if a == s.albumID {
				return true
			}
		}
		return false
	}), f.err
}
func (f *fakeCatalog) GetAlbum(_ context.Context, id int64) (*model.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.albums[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &a, nil
}
func (f *fakeCatalog) GetGenre(_ context.Context, id int64) (*model.Genre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.genres[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &g, nil
}
func (f *fakeCatalog) SongExists(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.songs {
		if s.view.ID == id {
			return true, nil
		}
	}
	return false, nil
}
func (f *fakeCatalog) RecordPlay(_ context.Context, songID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.songs {
		if s.view.ID == songID {
			s.listens++
			return s.path, nil
		}
	}
	return "", errs.ErrNotFound
}

func (f *fakeCatalog) listens() map[int64]int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[int64]int64{}
	for _, s := range f.songs {
		out[s.view.ID] = s.listens
	}
	return out
}
