// Package recommend computes ordered next-track candidates from the catalog.
package recommend

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/tfu/musify/internal/domain/track"
)

// DefaultLimit caps the number of candidates returned per recommendation.
const DefaultLimit = 5

// Catalog defines the track lookup operations the engine needs.
type Catalog interface {
	ByID(ctx context.Context, id string) (*track.Track, error)
	ByGenre(ctx context.Context, genre string) ([]track.Track, error)
	ByArtist(ctx context.Context, artist string) ([]track.Track, error)
	All(ctx context.Context) ([]track.Track, error)
}

// Engine selects candidate tracks by a fixed priority order: same genre
// first, same primary artist second, then the full catalog when too few
// candidates survive exclusion. Deterministic for a given catalog and
// exclusion set; any randomness belongs to the catalog implementation.
type Engine struct {
	catalog Catalog
	limit   int
}

// NewEngine creates a recommendation engine. A non-positive limit falls
// back to DefaultLimit.
func NewEngine(catalog Catalog, limit int) *Engine {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Engine{catalog: catalog, limit: limit}
}

// Recommend returns up to limit track IDs ordered by priority, excluding
// any ID in excluded. Fails soft: an unresolvable seed or catalog errors
// yield an empty result, never an error.
func (e *Engine) Recommend(ctx context.Context, seedID string, excluded map[string]bool) []string {
	seed, err := e.catalog.ByID(ctx, seedID)
	if err != nil {
		zlog.Warn().Msgf("recommendation seed lookup failed: track=%s error=%v", seedID, err)
		return nil
	}
	if seed == nil {
		zlog.Debug().Msgf("recommendation seed not in catalog: track=%s", seedID)
		return nil
	}

	var candidates []track.Track

	if seed.HasGenre() {
		byGenre, err := e.catalog.ByGenre(ctx, seed.Genre)
		if err != nil {
			zlog.Warn().Msgf("genre candidate lookup failed: genre=%s error=%v", seed.Genre, err)
		} else {
			candidates = append(candidates, byGenre...)
		}
	}

	if seed.HasArtist() {
		byArtist, err := e.catalog.ByArtist(ctx, seed.Artist)
		if err != nil {
			zlog.Warn().Msgf("artist candidate lookup failed: artist=%s error=%v", seed.Artist, err)
		} else {
			candidates = append(candidates, byArtist...)
		}
	}

	ids := dedupe(candidates, excluded, e.limit)
	if len(ids) < e.limit {
		all, err := e.catalog.All(ctx)
		if err != nil {
			zlog.Warn().Msgf("catalog fallback lookup failed: error=%v", err)
		} else {
			candidates = append(candidates, all...)
			ids = dedupe(candidates, excluded, e.limit)
		}
	}

	return ids
}

// dedupe filters excluded and empty IDs, keeps first occurrences in order,
// and caps the result.
func dedupe(candidates []track.Track, excluded map[string]bool, limit int) []string {
	seen := make(map[string]bool, len(candidates))
	var ids []string
	for _, c := range candidates {
		if c.ID == "" || seen[c.ID] || excluded[c.ID] {
			continue
		}
		seen[c.ID] = true
		ids = append(ids, c.ID)
		if len(ids) == limit {
			break
		}
	}
	return ids
}
