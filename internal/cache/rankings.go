// Package cache keeps short-lived copies of catalog rankings in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/and161185/audio-dementia/internal/model"
)

// DefaultTTL bounds how stale a cached ranking may get.
const DefaultTTL = time.Minute

// Client is the subset of *redis.Client used here.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Rankings caches top albums/genres as JSON under per-limit keys.
type Rankings struct {
	rdb    Client
	prefix string
	ttl    time.Duration
}

// NewRankings constructs a Redis-backed ranking cache.
func NewRankings(rdb Client, prefix string, ttl time.Duration) *Rankings {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = "ad"
	}
	return &Rankings{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return rdb, nil
}

func (r *Rankings) key(kind string, limit int) string {
	return fmt.Sprintf("%s:top:%s:%d", r.prefix, kind, limit)
}

func (r *Rankings) load(ctx context.Context, key string, dst any) (bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Rankings) store(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key, b, r.ttl).Err()
}

// TopAlbums returns a cached album ranking.
func (r *Rankings) TopAlbums(ctx context.Context, limit int) ([]model.AlbumView, bool, error) {
	var out []model.AlbumView
	ok, err := r.load(ctx, r.key("albums", limit), &out)
	return out, ok, err
}

// SetTopAlbums caches an album ranking.
func (r *Rankings) SetTopAlbums(ctx context.Context, limit int, albums []model.AlbumView) error {
	return r.store(ctx, r.key("albums", limit), albums)
}

// TopGenres returns a cached genre ranking.
func (r *Rankings) TopGenres(ctx context.Context, limit int) ([]model.GenreView, bool, error) {
	var out []model.GenreView
	ok, err := r.load(ctx, r.key("genres", limit), &out)
	return out, ok, err
}

// SetTopGenres caches a genre ranking.
func (r *Rankings) SetTopGenres(ctx context.Context, limit int, genres []model.GenreView) error {
	return r.store(ctx, r.key("genres", limit), genres)
}

// Nop is used when no Redis address is configured: every read misses.
type Nop struct{}

func (Nop) TopAlbums(context.Context, int) ([]model.AlbumView, bool, error) { return nil, false, nil }
func (Nop) SetTopAlbums(context.Context, int, []model.AlbumView) error { return nil }
func (Nop) TopGenres(context.Context, int) ([]model.GenreView, bool, error) { return nil, false, nil }
func (Nop) SetTopGenres(context.Context, int, []model.GenreView) error { return nil }
