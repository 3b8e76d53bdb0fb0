// Package track provides the Track domain entity.
package track

// Track represents a catalog track entity.
// Contains only the metadata the orchestrator needs for enriched views
// and recommendation seeding.
type Track struct {
	ID     string // Catalog track ID
	Title  string // Track title
	Artist string // Primary artist name
	Genre  string // Genre label
}

// HasGenre reports whether the track carries a usable genre label.
func (t *Track) HasGenre() bool {
	return t.Genre != ""
}

// HasArtist reports whether the track carries a usable artist name.
func (t *Track) HasArtist() bool {
	return t.Artist != ""
}
