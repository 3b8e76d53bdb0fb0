package memory

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/tfu/musify/internal/domain/track"
)

// CatalogSettings holds the in-memory catalog adapter settings.
type CatalogSettings struct {
	File string `mapstructure:"file" validate:"required"`
}

// seedFile is the YAML shape of the catalog seed file.
type seedFile struct {
	Tracks []seedTrack `yaml:"tracks"`
}

type seedTrack struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Artist string `yaml:"artist"`
	Genre  string `yaml:"genre"`
}

// Catalog is an immutable in-memory track catalog seeded from a YAML file.
type Catalog struct {
	tracks []track.Track
	byID   map[string]track.Track
}

// NewCatalog creates a catalog over the given tracks. Entries without an
// ID are dropped.
func NewCatalog(tracks []track.Track) *Catalog {
	c := &Catalog{byID: make(map[string]track.Track, len(tracks))}
	for _, t := range tracks {
		if t.ID == "" {
			continue
		}
		if _, exists := c.byID[t.ID]; exists {
			continue
		}
		c.byID[t.ID] = t
		c.tracks = append(c.tracks, t)
	}
	return c
}

// NewCatalogFromSettings builds a catalog from adapter settings pointing
// at a YAML seed file.
func NewCatalogFromSettings(settings map[string]any) (*Catalog, error) {
	var cfg CatalogSettings
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	data, err := os.ReadFile(cfg.File)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog seed file")
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog seed file")
	}

	tracks := make([]track.Track, 0, len(seed.Tracks))
	for _, t := range seed.Tracks {
		tracks = append(tracks, track.Track{
			ID:     t.ID,
			Title:  t.Title,
			Artist: t.Artist,
			Genre:  t.Genre,
		})
	}

	zlog.Info().Msgf("loaded catalog seed: file=%s tracks=%d", cfg.File, len(tracks))
	return NewCatalog(tracks), nil
}

// ByID returns the track with the given ID, or nil when unknown.
func (c *Catalog) ByID(ctx context.Context, id string) (*track.Track, error) {
	if t, ok := c.byID[id]; ok {
		return &t, nil
	}
	return nil, nil
}

// ByGenre returns all tracks with the given genre, case-insensitive.
func (c *Catalog) ByGenre(ctx context.Context, genre string) ([]track.Track, error) {
	var out []track.Track
	for _, t := range c.tracks {
		if strings.EqualFold(t.Genre, genre) {
			out = append(out, t)
		}
	}
	return out, nil
}

// ByArtist returns all tracks by the given artist, case-insensitive.
func (c *Catalog) ByArtist(ctx context.Context, artist string) ([]track.Track, error) {
	var out []track.Track
	for _, t := range c.tracks {
		if strings.EqualFold(t.Artist, artist) {
			out = append(out, t)
		}
	}
	return out, nil
}

// All returns every track in seed order.
func (c *Catalog) All(ctx context.Context) ([]track.Track, error) {
	out := make([]track.Track, len(c.tracks))
	copy(out, c.tracks)
	return out, nil
}
