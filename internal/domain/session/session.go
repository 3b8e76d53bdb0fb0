// Package session provides the active playback session value.
package session

// MaxPreviousTracks bounds the previous-track stack. The oldest entry is
// evicted from the front once the bound is exceeded.
const MaxPreviousTracks = 10

// Session represents a user's active playback session.
//
// Session is an immutable value: transitions build a replacement value and
// swap it into the store wholesale. Slice fields are never mutated in place,
// so values may share backing arrays safely.
type Session struct {
	UserID         string   // Owning user key
	CurrentTrackID string   // Track presently loaded, never empty
	Paused         bool     // Pause state
	Previous       []string // Played track IDs, most-recent-last, bounded
	Next           []string // Candidate track IDs to play next, FIFO
	HistoryID      string   // ID of the most recent history record
}

// WithPaused returns a copy of the session with the pause state replaced.
func (s Session) WithPaused(paused bool) Session {
	s.Paused = paused
	return s
}

// PeekPrevious returns the most recently played track ID, if any.
func (s Session) PeekPrevious() (string, bool) {
	if len(s.Previous) == 0 {
		return "", false
	}
	return s.Previous[len(s.Previous)-1], true
}

// PeekNext returns the head of the next queue, if any.
func (s Session) PeekNext() (string, bool) {
	if len(s.Next) == 0 {
		return "", false
	}
	return s.Next[0], true
}

// PushPrevious returns a new stack with id appended at the tail.
// An existing occurrence of id is removed first, and the oldest entry is
// evicted once the stack exceeds MaxPreviousTracks.
func PushPrevious(stack []string, id string) []string {
	if id == "" {
		return stack
	}
	out := make([]string, 0, len(stack)+1)
	for _, v := range stack {
		if v != id {
			out = append(out, v)
		}
	}
	out = append(out, id)
	if len(out) > MaxPreviousTracks {
		out = out[len(out)-MaxPreviousTracks:]
	}
	return out
}

// PopPrevious removes the most recently pushed track ID from the stack.
// Returns the popped ID, the remaining stack, and whether a pop happened.
func PopPrevious(stack []string) (string, []string, bool) {
	if len(stack) == 0 {
		return "", stack, false
	}
	id := stack[len(stack)-1]
	rest := make([]string, len(stack)-1)
	copy(rest, stack[:len(stack)-1])
	return id, rest, true
}

// PopNext removes the head of the next queue.
// Returns the popped ID, the remaining queue, and whether a pop happened.
func PopNext(queue []string) (string, []string, bool) {
	if len(queue) == 0 {
		return "", queue, false
	}
	id := queue[0]
	rest := make([]string, len(queue)-1)
	copy(rest, queue[1:])
	return id, rest, true
}
