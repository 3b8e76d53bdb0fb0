// Package history provides the playback history record entity.
package history

import "time"

// Record represents one track's playback span for a user.
// Records are owned by a HistoryStore; the orchestrator only holds the ID
// of the most recent record for a session.
type Record struct {
	ID        string    // Record UUID
	UserID    string    // Owning user
	TrackID   string    // Track that was loaded
	Timestamp time.Time // When playback of this track began
	Completed bool      // Whether the track was played through
}
