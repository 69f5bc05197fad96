package lastfm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/audio-dementia/internal/errs"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.Client(), srv.URL+"/2.0/", "apiKey1")
}

func TestTrackAlbum(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/2.0/", r.URL.Path)
		require.Equal(t, url.Values{
			"method":  {"track.getinfo"},
			"track":   {"Song 1"},
			"artist":  {"Artist 1"},
			"api_key": {"apiKey1"},
			"format":  {"json"},
		}, r.URL.Query())

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"track":{"name":"Song 1","album":{"artist":"Artist 1","title":"Album 1","image":[]}}}`))
	})

	title, err := c.TrackAlbum(context.Background(), "Artist 1", "Song 1")
	require.NoError(t, err)
	require.Equal(t, "Album 1", title)
}

func TestTrackAlbum_NoAlbum(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"track":{"name":"Song 1"}}`))
	})

	title, err := c.TrackAlbum(context.Background(), "Artist 1", "Song 1")
	require.NoError(t, err)
	require.Empty(t, title)
}

func TestAlbumCovers(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "album.getinfo", r.URL.Query().Get("method"))
		require.Equal(t, "Album 1", r.URL.Query().Get("album"))
		_, _ = w.Write([]byte(`{"album":{"name":"Album 1","artist":"Artist 1","image":[
			{"#text":"https://img/34.png","size":"small"},
			{"#text":"https://img/64.png","size":"medium"},
			{"#text":"https://img/174.png","size":"large"}]}}`))
	})

	small, medium, err := c.AlbumCovers(context.Background(), "Artist 1", "Album 1")
	require.NoError(t, err)
	require.NotNil(t, small)
	require.NotNil(t, medium)
	require.Equal(t, "https://img/64.png", *small)
	require.Equal(t, "https://img/174.png", *medium)
}

func TestAlbumCovers_MissingSizes(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"album":{"name":"Album 1","image":[{"#text":"a","size":"small"},{"#text":"","size":"medium"}]}}`))
	})

	small, medium, err := c.AlbumCovers(context.Background(), "Artist 1", "Album 1")
	require.NoError(t, err)
	require.Nil(t, small)
	require.Nil(t, medium)
}

func TestErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]http.HandlerFunc{
		"api error": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"error":6,"message":"Track not found"}`))
		},
		"bad status": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
		"bad body": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<lfm status="ok">`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, h)
			_, err := c.TrackAlbum(context.Background(), "a", "b")
			require.ErrorIs(t, err, errs.ErrExternal)
			_, _, err = c.AlbumCovers(context.Background(), "a", "b")
			require.ErrorIs(t, err, errs.ErrExternal)
		})
	}
}

func TestUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(nil, srv.URL, "k")
	_, err := c.TrackAlbum(context.Background(), "a", "b")
	require.ErrorIs(t, err, errs.ErrExternal)
}
