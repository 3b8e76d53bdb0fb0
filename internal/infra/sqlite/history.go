// Package sqlite persists playback history in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tfu/musify/internal/domain/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS playback_history (
	id        TEXT PRIMARY KEY,
	user_id   TEXT NOT NULL,
	track_id  TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_playback_history_user
	ON playback_history (user_id, timestamp);
`

// HistoryStore is a SQLite-backed playback history store.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore opens the database at the given DSN and ensures the
// schema exists. Use ":memory:" for an ephemeral store.
func NewHistoryStore(dsn string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open history database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to apply history schema")
	}
	return &HistoryStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// Create inserts a new incomplete record for the playback that just began.
func (s *HistoryStore) Create(ctx context.Context, userID, trackID string) (history.Record, error) {
	rec := history.Record{
		ID:        uuid.New().String(),
		UserID:    userID,
		TrackID:   trackID,
		Timestamp: time.Now().UTC(),
	}

	query := `INSERT INTO playback_history (id, user_id, track_id, timestamp, completed)
		VALUES (?, ?, ?, ?, 0)`
	if _, err := s.db.ExecContext(ctx, query, rec.ID, rec.UserID, rec.TrackID, rec.Timestamp); err != nil {
		return history.Record{}, errors.Wrap(err, "failed to insert history record")
	}
	return rec, nil
}

// MarkComplete flags a record as played through.
func (s *HistoryStore) MarkComplete(ctx context.Context, recordID string) error {
	return s.setCompleted(ctx, recordID, true)
}

// MarkIncomplete flags a record as superseded before completion.
func (s *HistoryStore) MarkIncomplete(ctx context.Context, recordID string) error {
	return s.setCompleted(ctx, recordID, false)
}

func (s *HistoryStore) setCompleted(ctx context.Context, recordID string, completed bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE playback_history SET completed = ? WHERE id = ?", completed, recordID)
	if err != nil {
		return errors.Wrap(err, "failed to update history record")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read update result")
	}
	if affected == 0 {
		return errors.Newf("history record %s not found", recordID)
	}
	return nil
}

// Find returns a record by ID, or nil when it does not exist.
func (s *HistoryStore) Find(ctx context.Context, recordID string) (*history.Record, error) {
	query := `SELECT id, user_id, track_id, timestamp, completed
		FROM playback_history WHERE id = ?`

	var rec history.Record
	err := s.db.QueryRowContext(ctx, query, recordID).
		Scan(&rec.ID, &rec.UserID, &rec.TrackID, &rec.Timestamp, &rec.Completed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query history record")
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
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT id, user_id, track_id, timestamp, completed
		FROM playback_history WHERE user_id = ?`
	args := []any{userID}
	if !from.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, to.UTC())
	}
	query += " ORDER BY timestamp DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query history records")
	}
	defer rows.Close()

	var out []history.Record
	for rows.Next() {
		var rec history.Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.TrackID, &rec.Timestamp, &rec.Completed); err != nil {
			return nil, errors.Wrap(err, "failed to scan history record")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate history records")
	}
	return out, nil
}
