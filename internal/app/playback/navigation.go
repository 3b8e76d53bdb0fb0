package playback

// Pure queue arithmetic for navigation transitions. Kept free of
// collaborator calls so the state machine is testable in isolation.

// excludeSet builds the recommendation exclusion set from the track that
// will be current plus the previous stack it must never collide with.
func excludeSet(currentID string, previous []string) map[string]bool {
	excluded := make(map[string]bool, len(previous)+1)
	excluded[currentID] = true
	for _, id := range previous {
		excluded[id] = true
	}
	return excluded
}

// mergeQueue appends residual candidates behind the fresh recommendations,
// dropping anything equal to the current track, present on the previous
// stack, or already queued. Order within each part is preserved.
func mergeQueue(fresh, residual []string, currentID string, previous []string) []string {
	taken := excludeSet(currentID, previous)
	out := make([]string, 0, len(fresh)+len(residual))
	for _, id := range fresh {
		if id == "" || taken[id] {
			continue
		}
		taken[id] = true
		out = append(out, id)
	}
	for _, id := range residual {
		if id == "" || taken[id] {
			continue
		}
		taken[id] = true
		out = append(out, id)
	}
	return out
}
