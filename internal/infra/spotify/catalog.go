// Package spotify backs the track catalog with the Spotify API.
package spotify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/tfu/musify/internal/domain/track"
)

// Settings holds the Spotify catalog adapter settings.
type Settings struct {
	ClientID     string `mapstructure:"client_id" validate:"required"`
	ClientSecret string `mapstructure:"client_secret" validate:"required"`
	RefreshToken string `mapstructure:"refresh_token" validate:"required"`
	Market       string `mapstructure:"market"`
	SearchLimit  int    `mapstructure:"search_limit"`
}

// Catalog is a Spotify-backed track catalog.
type Catalog struct {
	client      *spotify.Client
	market      string
	searchLimit int
	maxRetries  int
	retryDelay  time.Duration
}

// NewCatalog creates a Spotify catalog from adapter settings.
func NewCatalog(ctx context.Context, settings map[string]any) (*Catalog, error) {
	var cfg Settings
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
	)
	token := &oauth2.Token{RefreshToken: cfg.RefreshToken}
	httpClient := auth.Client(ctx, token)

	market := cfg.Market
	if market == "" {
		market = "US"
	}
	searchLimit := cfg.SearchLimit
	if searchLimit <= 0 || searchLimit > 50 {
		searchLimit = 20
	}

	return &Catalog{
		client:      spotify.New(httpClient),
		market:      market,
		searchLimit: searchLimit,
		maxRetries:  3,
		retryDelay:  time.Second,
	}, nil
}

// ByID retrieves a track by Spotify ID, or nil when unknown.
func (c *Catalog) ByID(ctx context.Context, id string) (*track.Track, error) {
	var result *spotify.FullTrack
	err := c.retry(func() error {
		t, err := c.client.GetTrack(ctx, spotify.ID(id), spotify.Market(c.market))
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get track")
	}

	t := convertTrack(result)
	return &t, nil
}

// ByGenre searches for tracks in the given genre.
func (c *Catalog) ByGenre(ctx context.Context, genre string) ([]track.Track, error) {
	return c.search(ctx, fmt.Sprintf("genre:%q", genre))
}

// ByArtist searches for tracks by the given artist.
func (c *Catalog) ByArtist(ctx context.Context, artist string) ([]track.Track, error) {
	return c.search(ctx, fmt.Sprintf("artist:%q", artist))
}

// All is unsupported; the Spotify catalog is not enumerable. Callers
// treat an empty result as "no broader pool available".
func (c *Catalog) All(ctx context.Context) ([]track.Track, error) {
	return nil, nil
}

func (c *Catalog) search(ctx context.Context, query string) ([]track.Track, error) {
	var result *spotify.SearchResult
	err := c.retry(func() error {
		r, err := c.client.Search(ctx, query, spotify.SearchTypeTrack,
			spotify.Limit(c.searchLimit), spotify.Market(c.market))
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "search failed")
	}
	if result.Tracks == nil {
		return nil, nil
	}

	tracks := make([]track.Track, 0, len(result.Tracks.Tracks))
	for i := range result.Tracks.Tracks {
		tracks = append(tracks, convertTrack(&result.Tracks.Tracks[i]))
	}
	return tracks, nil
}

// convertTrack maps a Spotify track onto the catalog shape. Spotify does
// not expose a genre per track, so the genre field stays empty and the
// artist dimension carries recommendations.
func convertTrack(t *spotify.FullTrack) track.Track {
	var artist string
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}
	return track.Track{
		ID:     string(t.ID),
		Title:  t.Name,
		Artist: artist,
	}
}

// retry retries an operation with linear backoff.
func (c *Catalog) retry(fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay * time.Duration(i+1))
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "404")
}
