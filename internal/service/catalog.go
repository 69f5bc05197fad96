package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/audio-dementia/internal/errs"
	"github.com/and161185/audio-dementia/internal/model"
	"github.com/and161185/audio-dementia/internal/pagination"
	"github.com/and161185/audio-dementia/internal/repository"
)

// RankingCache stores computed top-N rankings for a short time.
// A miss is reported by ok == false with a nil error.
type RankingCache interface {
	TopAlbums(ctx context.Context, limit int) (albums []model.AlbumView, ok bool, err error)
	SetTopAlbums(ctx context.Context, limit int, albums []model.AlbumView) error
	TopGenres(ctx context.Context, limit int) (genres []model.GenreView, ok bool, err error)
	SetTopGenres(ctx context.Context, limit int, genres []model.GenreView) error
}

// CatalogService exposes read queries over the catalog and play accounting.
type CatalogService interface {
	SongsByTitle(ctx context.Context, title string, p pagination.Page) ([]model.SongView, error)
	SongsByArtist(ctx context.Context, artist string, p pagination.Page) ([]model.SongView, error)
	AlbumsByTitle(ctx context.Context, title string, p pagination.Page) ([]model.AlbumView, error)
	TopAlbums(ctx context.Context, limit int) ([]model.AlbumView, error)
	TopGenres(ctx context.Context, limit int) ([]model.GenreView, error)
	SongsOfAlbum(ctx context.Context, albumID int64) (model.Album, []model.SongView, error)
	SongsOfGenre(ctx context.Context, genreID int64, p pagination.Page) (model.Genre, []model.SongView, error)
	// RecordPlay counts one listen and returns the audio file path.
	RecordPlay(ctx context.Context, songID int64) (string, error)
}

// CatalogServiceImpl implements CatalogService.
type CatalogServiceImpl struct {
	repo  repository.CatalogRepository
	cache RankingCache
	log   *zap.Logger
}

var _ CatalogService = (*CatalogServiceImpl)(nil)

// NewCatalogService constructs CatalogService. cache may be nil.
func NewCatalogService(repo repository.CatalogRepository, cache RankingCache, log *zap.Logger) *CatalogServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogServiceImpl{repo: repo, cache: cache, log: log}
}

func searchTerm(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: title parameter is an empty string", errs.ErrValidation)
	}
	return s, nil
}

func checkLimit(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", errs.ErrValidation, limit)
	}
	return nil
}

// SongsByTitle returns songs whose title contains title, case-insensitively.
func (s *CatalogServiceImpl) SongsByTitle(ctx context.Context, title string, p pagination.Page) ([]model.SongView, error) {
	term, err := searchTerm(title)
	if err != nil {
		return nil, err
	}
	return s.repo.SongsByTitle(ctx, term, p)
}

// SongsByArtist returns songs whose own or album artist contains artist.
func (s *CatalogServiceImpl) SongsByArtist(ctx context.Context, artist string, p pagination.Page) ([]model.SongView, error) {
	term, err := searchTerm(artist)
	if err != nil {
		return nil, err
	}
	return s.repo.SongsByArtist(ctx, term, p)
}

// AlbumsByTitle returns albums whose title contains title.
func (s *CatalogServiceImpl) AlbumsByTitle(ctx context.Context, title string, p pagination.Page) ([]model.AlbumView, error) {
	term, err := searchTerm(title)
	if err != nil {
		return nil, err
	}
	return s.repo.AlbumsByTitle(ctx, term, p)
}

// TopAlbums serves from the ranking cache when possible. Cache errors are logged and bypassed.
func (s *CatalogServiceImpl) TopAlbums(ctx context.Context, limit int) ([]model.AlbumView, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	if s.cache != nil {
		albums, ok, err := s.cache.TopAlbums(ctx, limit)
		if err != nil {
			s.log.Warn("ranking cache read failed", zap.String("ranking", "albums"), zap.Error(err))
		} else if ok {
			return albums, nil
		}
	}
	albums, err := s.repo.TopAlbums(ctx, limit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetTopAlbums(ctx, limit, albums); err != nil {
			s.log.Warn("ranking cache write failed", zap.String("ranking", "albums"), zap.Error(err))
		}
	}
	return albums, nil
}

// TopGenres serves from the ranking cache when possible.
func (s *CatalogServiceImpl) TopGenres(ctx context.Context, limit int) ([]model.GenreView, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	if s.cache != nil {
		genres, ok, err := s.cache.TopGenres(ctx, limit)
		if err != nil {
			s.log.Warn("ranking cache read failed", zap.String("ranking", "genres"), zap.Error(err))
		} else if ok {
			return genres, nil
		}
	}
	genres, err := s.repo.TopGenres(ctx, limit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetTopGenres(ctx, limit, genres); err != nil {
			s.log.Warn("ranking cache write failed", zap.String("ranking", "genres"), zap.Error(err))
		}
	}
	return genres, nil
}

// SongsOfAlbum returns the album and its songs in album order.
func (s *CatalogServiceImpl) SongsOfAlbum(ctx context.Context, albumID int64) (model.Album, []model.SongView, error) {
	a, err := s.repo.GetAlbum(ctx, albumID)
	if err != nil {
		return model.Album{}, nil, err
	}
	songs, err := s.repo.SongsOfAlbum(ctx, albumID)
	if err != nil {
		return model.Album{}, nil, err
	}
	return *a, songs, nil
}

// SongsOfGenre returns the genre and one page of its songs.
func (s *CatalogServiceImpl) SongsOfGenre(
	ctx context.Context, genreID int64, p pagination.Page,
) (model.Genre, []model.SongView, error) {
	g, err := s.repo.GetGenre(ctx, genreID)
	if err != nil {
		return model.Genre{}, nil, err
	}
	songs, err := s.repo.SongsOfGenre(ctx, genreID, p)
	if err != nil {
		return model.Genre{}, nil, err
	}
	return *g, songs, nil
}

// RecordPlay increments the listen counter exactly once per call.
func (s *CatalogServiceImpl) RecordPlay(ctx context.Context, songID int64) (string, error) {
	return s.repo.RecordPlay(ctx, songID)
}
