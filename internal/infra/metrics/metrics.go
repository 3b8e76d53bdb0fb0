// Package metrics records latency measurements for playback operations.
package metrics

import (
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// Stat aggregates the recorded durations for one metric series.
type Stat struct {
	Count int64         `json:"count"`
	Total time.Duration `json:"-"`
	Max   time.Duration `json:"-"`
	AvgMs int64         `json:"avg_ms"`
	MaxMs int64         `json:"max_ms"`
}

// Registry aggregates duration metrics in memory, keyed by metric name
// and trigger tag.
type Registry struct {
	mu    sync.Mutex
	stats map[string]Stat
}

// NewRegistry creates an empty metrics registry.
func NewRegistry() *Registry {
	return &Registry{stats: make(map[string]Stat)}
}

// RecordDuration records one measurement for the given series.
func (r *Registry) RecordDuration(name, trigger string, d time.Duration) {
	key := name + ":" + trigger

	r.mu.Lock()
	stat := r.stats[key]
	stat.Count++
	stat.Total += d
	if d > stat.Max {
		stat.Max = d
	}
	r.stats[key] = stat
	r.mu.Unlock()

	zlog.Debug().
		Str("metric", name).
		Str("trigger", trigger).
		Dur("duration", d).
		Msg("recorded metric")
}

// Snapshot returns the current aggregates keyed by "name:trigger".
func (r *Registry) Snapshot() map[string]Stat {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Stat, len(r.stats))
	for key, stat := range r.stats {
		if stat.Count > 0 {
			stat.AvgMs = (stat.Total / time.Duration(stat.Count)).Milliseconds()
		}
		stat.MaxMs = stat.Max.Milliseconds()
		out[key] = stat
	}
	return out
}
