package playback

import (
	"context"
	"time"

	"github.com/tfu/musify/internal/domain/history"
	"github.com/tfu/musify/internal/domain/track"
)

// TrackCatalog defines the track metadata lookups the orchestrator needs.
// A nil track with a nil error means the ID is not in the catalog.
type TrackCatalog interface {
	ByID(ctx context.Context, id string) (*track.Track, error)
	ByGenre(ctx context.Context, genre string) ([]track.Track, error)
	ByArtist(ctx context.Context, artist string) ([]track.Track, error)
	All(ctx context.Context) ([]track.Track, error)
}

// StreamResolver resolves a playable URL for a track. The degraded flag
// reports that the fallback placeholder was served because the upstream
// source failed. Resolution never errors.
type StreamResolver interface {
	Resolve(ctx context.Context, trackID string) (url string, degraded bool)
}

// HistoryStore persists playback history records. Range listings treat a
// zero time bound as unbounded.
type HistoryStore interface {
	Create(ctx context.Context, userID, trackID string) (history.Record, error)
	MarkComplete(ctx context.Context, recordID string) error
	MarkIncomplete(ctx context.Context, recordID string) error
	Find(ctx context.Context, recordID string) (*history.Record, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]history.Record, error)
	ListByUserInRange(ctx context.Context, userID string, from, to time.Time, limit, offset int) ([]history.Record, error)
}

// MetricsSink records duration samples. Implementations must be one-way:
// recording failures never influence the caller.
type MetricsSink interface {
	RecordDuration(name, trigger string, d time.Duration)
}

// Recommender computes ordered next-track candidates.
type Recommender interface {
	Recommend(ctx context.Context, seedID string, excluded map[string]bool) []string
}
