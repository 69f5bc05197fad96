// Package lastfm is a small read-only client for the Last.fm web API used to
// enrich imported songs with album titles and cover art.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/and161185/audio-dementia/internal/errs"
)

const (
	BaseURL        = "https://ws.audioscrobbler.com/2.0/"
	DefaultTimeout = 10 * time.Second
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient returns a client. A nil httpClient gets one with DefaultTimeout,
// an empty baseURL means BaseURL.
func NewClient(httpClient *http.Client, baseURL, apiKey string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey}
}

// TrackAlbum returns the title of the album the track belongs to, or "" when
// Last.fm knows the track but not its album.
func (c *Client) TrackAlbum(ctx context.Context, artist, track string) (string, error) {
	params := url.Values{}
	params.Add("method", "track.getinfo")
	params.Add("track", track)
	params.Add("artist", artist)

	var resp response
	if err := c.makeRequest(ctx, params, &resp); err != nil {
		return "", fmt.Errorf("track.getinfo: %w", err)
	}
	if resp.Track == nil || resp.Track.Album == nil {
		return "", nil
	}
	return resp.Track.Album.Title, nil
}

// AlbumCovers returns the small and medium cover URLs of an album. Missing
// sizes come back as nil.
func (c *Client) AlbumCovers(ctx context.Context, artist, album string) (small, medium *string, err error) {
	params := url.Values{}
	params.Add("method", "album.getinfo")
	params.Add("album", album)
	params.Add("artist", artist)

	var resp response
	if err := c.makeRequest(ctx, params, &resp); err != nil {
		return nil, nil, fmt.Errorf("album.getinfo: %w", err)
	}
	if resp.Album == nil {
		return nil, nil, nil
	}
	// Last.fm lists sizes small, medium, large, ...; index 0 is too small to use.
	return resp.Album.imageURL(1), resp.Album.imageURL(2), nil
}

func (c *Client) makeRequest(ctx context.Context, params url.Values, out *response) error {
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.URL.RawQuery = params.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: get: %v", errs.ErrExternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status %d", errs.ErrExternal, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding: %v", errs.ErrExternal, err)
	}
	if out.Error != 0 {
		return fmt.Errorf("%w: last.fm error %d: %s", errs.ErrExternal, out.Error, out.Message)
	}
	return nil
}
