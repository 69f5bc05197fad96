package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/audio-dementia/internal/errs"
	"github.com/and161185/audio-dementia/internal/model"
	"github.com/and161185/audio-dementia/internal/pagination"
	"github.com/and161185/audio-dementia/internal/repository"
)

// PlaylistService manages playlists and their ordered membership.
// Mutations are allowed to the playlist owner only.
type PlaylistService interface {
	Create(ctx context.Context, actorID int64, title string) (model.Playlist, error)
	AddSong(ctx context.Context, actorID, playlistID, songID int64) (int, error)
	RemoveSong(ctx context.Context, actorID, playlistID, songID int64) error
	Songs(ctx context.Context, playlistID int64, p pagination.Page) (model.Playlist, []model.PlaylistSongView, error)
	Delete(ctx context.Context, actorID, playlistID int64) error
	// ListByOwner lists playlists of login, or of the actor when login is empty.
	ListByOwner(ctx context.Context, actorID int64, login string) (model.User, []model.Playlist, error)
}

// PlaylistServiceImpl implements PlaylistService.
type PlaylistServiceImpl struct {
	playlists repository.PlaylistRepository
	catalog   repository.CatalogRepository
	users     repository.UserRepository
}

var _ PlaylistService = (*PlaylistServiceImpl)(nil)

// NewPlaylistService constructs PlaylistService.
func NewPlaylistService(
	playlists repository.PlaylistRepository,
	catalog repository.CatalogRepository,
	users repository.UserRepository,
) *PlaylistServiceImpl {
	return &PlaylistServiceImpl{playlists: playlists, catalog: catalog, users: users}
}

// Create makes an empty playlist owned by the actor.
func (s *PlaylistServiceImpl) Create(ctx context.Context, actorID int64, title string) (model.Playlist, error) {
	if strings.TrimSpace(title) == "" {
		return model.Playlist{}, fmt.Errorf("%w: title parameter is an empty string", errs.ErrValidation)
	}
	p, err := s.playlists.Create(ctx, actorID, title)
	if err != nil {
		return model.Playlist{}, err
	}
	return *p, nil
}

// owned loads the playlist and checks that actorID owns it.
func (s *PlaylistServiceImpl) owned(ctx context.Context, actorID, playlistID int64) (*model.Playlist, error) {
	p, err := s.playlists.Get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if p.UserID != actorID {
		return nil, errs.ErrForbidden
	}
	return p, nil
}

func (s *PlaylistServiceImpl) songMustExist(ctx context.Context, songID int64) error {
	ok, err := s.catalog.SongExists(ctx, songID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("song %d: %w", songID, errs.ErrSongNotFound)
	}
	return nil
}

// AddSong appends the song and returns its 1-based position.
func (s *PlaylistServiceImpl) AddSong(ctx context.Context, actorID, playlistID, songID int64) (int, error) {
	if _, err := s.owned(ctx, actorID, playlistID); err != nil {
		return 0, err
	}
	if err := s.songMustExist(ctx, songID); err != nil {
		return 0, err
	}
	return s.playlists.AddSong(ctx, playlistID, songID)
}

// RemoveSong drops the first occurrence of the song from the playlist.
func (s *PlaylistServiceImpl) RemoveSong(ctx context.Context, actorID, playlistID, songID int64) error {
	if _, err := s.owned(ctx, actorID, playlistID); err != nil {
		return err
	}
	if err := s.songMustExist(ctx, songID); err != nil {
		return err
	}
	return s.playlists.RemoveSong(ctx, playlistID, songID)
}

// Songs returns one page of members ordered by position. Playlists are public to read.
func (s *PlaylistServiceImpl) Songs(
	ctx context.Context, playlistID int64, p pagination.Page,
) (model.Playlist, []model.PlaylistSongView, error) {
	pl, err := s.playlists.Get(ctx, playlistID)
	if err != nil {
		return model.Playlist{}, nil, err
	}
	songs, err := s.playlists.Songs(ctx, playlistID, p)
	if err != nil {
		return model.Playlist{}, nil, err
	}
	return *pl, songs, nil
}

// Delete removes an owned playlist with all its membership rows.
func (s *PlaylistServiceImpl) Delete(ctx context.Context, actorID, playlistID int64) error {
	if _, err := s.owned(ctx, actorID, playlistID); err != nil {
		return err
	}
	return s.playlists.Delete(ctx, playlistID)
}

// ListByOwner resolves the owner and returns their playlists ordered by id.
func (s *PlaylistServiceImpl) ListByOwner(
	ctx context.Context, actorID int64, login string,
) (model.User, []model.Playlist, error) {
	var (
		u   *model.User
		err error
	)
	if login != "" {
		u, err = s.users.GetByLogin(ctx, login)
	} else {
		u, err = s.users.GetByID(ctx, actorID)
	}
	if err != nil {
		return model.User{}, nil, err
	}
	list, err := s.playlists.ListByUser(ctx, u.ID)
	if err != nil {
		return model.User{}, nil, err
	}
	return *u, list, nil
}
