package playback

import (
	"sync"

	"github.com/tfu/musify/internal/domain/session"
)

// SessionStore holds at most one active playback session per user.
//
// The map itself is guarded by a short-lived RWMutex; serialization of
// whole orchestrator operations happens through per-user locks acquired
// with Lock, so operations for different users never block one another.
// Entirely in-memory: sessions are lost on restart and reconstructible
// from the most recent history record on the next start.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]session.Session

	lockMu sync.Mutex
	locks  map[string]*userLock
}

// userLock is a per-user mutex with a holder/waiter count so its map
// entry can be reclaimed once the last user releases it.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]session.Session),
		locks:    make(map[string]*userLock),
	}
}

// Lock serializes orchestrator operations for one user. It blocks until
// the user's slot is free and returns the unlock function. The lock entry
// is dropped when no holder or waiter remains, so the map stays bounded
// by the number of in-flight operations.
func (s *SessionStore) Lock(userID string) func() {
	s.lockMu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.lockMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.lockMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, userID)
		}
		s.lockMu.Unlock()
	}
}

// Get returns the user's active session, if any.
func (s *SessionStore) Get(userID string) (session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// Put stores the user's session, replacing any existing one.
func (s *SessionStore) Put(userID string, sess session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = sess
}

// Remove deletes the user's session. Removing an absent session is a no-op.
func (s *SessionStore) Remove(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Count returns the number of active sessions.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
