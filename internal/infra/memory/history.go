// Package memory provides in-memory collaborator adapters, used for
// development setups and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/tfu/musify/internal/domain/history"
)

// HistoryStore keeps playback history records in memory. Records are lost
// on process restart.
type HistoryStore struct {
	mu      sync.RWMutex
	records map[string]history.Record
}

// NewHistoryStore creates an empty in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{records: make(map[string]history.Record)}
}

// Create inserts a new incomplete record for the playback that just began.
func (s *HistoryStore) Create(ctx context.Context, userID, trackID string) (history.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := history.Record{
		ID:        uuid.New().String(),
		UserID:    userID,
		TrackID:   trackID,
		Timestamp: time.Now(),
	}
	s.records[rec.ID] = rec
	return rec, nil
}

// MarkComplete flags a record as played through.
func (s *HistoryStore) MarkComplete(ctx context.Context, recordID string) error {
	return s.setCompleted(recordID, true)
}

// MarkIncomplete flags a record as superseded before completion.
func (s *HistoryStore) MarkIncomplete(ctx context.Context, recordID string) error {
	return s.setCompleted(recordID, false)
}

func (s *HistoryStore) setCompleted(recordID string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordID]
	if !ok {
		return errors.Newf("history record %s not found", recordID)
	}
	rec.Completed = completed
	s.records[recordID] = rec
	return nil
}

// Find returns a record by ID, or nil when it does not exist.
func (s *HistoryStore) Find(ctx context.Context, recordID string) (*history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// ListByUser returns a user's records, newest first.
func (s *HistoryStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]history.Record, error) {
	return s.ListByUserInRange(ctx, userID, time.Time{}, time.Time{}, limit, offset)
}

// ListByUserInRange returns a user's records within [from, to], newest
// first. A zero bound is unbounded.
func (s *HistoryStore) ListByUserInRange(ctx context.Context, userID string, from, to time.Time, limit, offset int) ([]history.Record, error) {
	s.mu.RLock()
	var out []history.Record
	for _, rec := range s.records {
		if rec.UserID != userID {
			continue
		}
		if !from.IsZero() && rec.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && rec.Timestamp.After(to) {
			continue
		}
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
