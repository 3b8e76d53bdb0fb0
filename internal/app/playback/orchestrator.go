// Package playback provides the playback-session orchestrator: per-user
// session state, next/previous navigation over a listening history, and
// resilient stream-URL resolution.
package playback

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/tfu/musify/internal/domain/history"
	"github.com/tfu/musify/internal/domain/session"
	"github.com/tfu/musify/internal/domain/track"
)

// MetricTimeToPlay is the duration metric recorded for every stream-URL
// resolution, tagged by the triggering action.
const MetricTimeToPlay = "musify.playback.time_to_play"

// Metric trigger tags.
const (
	TriggerStart    = "start"
	TriggerResume   = "resume"
	TriggerNext     = "next"
	TriggerPrevious = "previous"
	TriggerFallback = "fallback"
)

// viewRecommendationLimit caps the recommendations included in a view.
const viewRecommendationLimit = 5

// View is the enriched session state returned by navigation operations.
type View struct {
	StreamURL       string        `json:"streamUrl"`
	Current         *track.Track  `json:"currentTrack,omitempty"`
	Previous        *track.Track  `json:"previousTrack,omitempty"`
	Next            *track.Track  `json:"nextTrack,omitempty"`
	Recommendations []track.Track `json:"recommendations"`
	TimeToPlay      time.Duration `json:"-"`
	TimeToPlayMs    int64         `json:"timeToPlayMs"`
}

// Status is the read-only playback state of a user.
type Status struct {
	TrackID         string    `json:"trackId"`
	Paused          bool      `json:"paused"`
	Since           time.Time `json:"since"`
	DurationSeconds int64     `json:"durationSeconds"`
}

// Orchestrator composes the session store, navigation logic, recommendation
// engine, resilient stream resolution, and history persistence into the
// operations exposed to callers. Operations for the same user are serialized
// through the store's per-user locks; different users proceed concurrently.
type Orchestrator struct {
	store     *SessionStore
	catalog   TrackCatalog
	histStore HistoryStore
	resolver  StreamResolver
	engine    Recommender
	metrics   MetricsSink
}

// NewOrchestrator wires the orchestrator's collaborators.
func NewOrchestrator(
	store *SessionStore,
	catalog TrackCatalog,
	histStore HistoryStore,
	resolver StreamResolver,
	engine Recommender,
	metrics MetricsSink,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		catalog:   catalog,
		histStore: histStore,
		resolver:  resolver,
		engine:    engine,
		metrics:   metrics,
	}
}

// Start loads a track for the user, replacing any existing session. The
// prior session's current track is pushed onto the carried-over previous
// stack and its history record is marked incomplete. Start never fails on
// upstream degradation; the stream URL falls back to a placeholder.
func (o *Orchestrator) Start(ctx context.Context, userID, trackID string) (*View, error) {
	if userID == "" || trackID == "" {
		return nil, errors.New("user id and track id are required")
	}

	unlock := o.store.Lock(userID)
	defer unlock()

	zlog.Debug().Msgf("starting playback: user=%s track=%s", userID, trackID)

	var previous []string
	var priorHistoryID string
	if prior, ok := o.store.Get(userID); ok {
		previous = session.PushPrevious(prior.Previous, prior.CurrentTrackID)
		priorHistoryID = prior.HistoryID
	}

	queue := o.engine.Recommend(ctx, trackID, excludeSet(trackID, previous))

	sess := session.Session{
		UserID:         userID,
		CurrentTrackID: trackID,
		Previous:       previous,
		Next:           queue,
	}
	view, err := o.commit(ctx, &sess, TriggerStart)
	if err != nil {
		return nil, err
	}
	o.markIncomplete(ctx, priorHistoryID)

	zlog.Info().Msgf("playback started: user=%s track=%s", userID, trackID)
	return view, nil
}

// Pause pauses the user's playback. Returns false when no session exists.
func (o *Orchestrator) Pause(ctx context.Context, userID string) bool {
	unlock := o.store.Lock(userID)
	defer unlock()

	sess, ok := o.store.Get(userID)
	if !ok {
		zlog.Debug().Msgf("pause with no active session: user=%s", userID)
		return false
	}

	o.store.Put(userID, sess.WithPaused(true))
	zlog.Info().Msgf("playback paused: user=%s", userID)
	return true
}

// Resume unpauses the user's playback and re-resolves the stream URL.
// Returns nil when there is no session or it is not paused.
func (o *Orchestrator) Resume(ctx context.Context, userID string) (*View, error) {
	unlock := o.store.Lock(userID)
	defer unlock()

	sess, ok := o.store.Get(userID)
	if !ok || !sess.Paused {
		zlog.Debug().Msgf("resume with no paused session: user=%s", userID)
		return nil, nil
	}

	sess = sess.WithPaused(false)

	begin := time.Now()
	url, degraded := o.resolver.Resolve(ctx, sess.CurrentTrackID)
	elapsed := time.Since(begin)
	o.recordTimeToPlay(TriggerResume, degraded, elapsed)

	o.store.Put(userID, sess)
	zlog.Info().Msgf("playback resumed: user=%s track=%s", userID, sess.CurrentTrackID)
	return o.buildView(ctx, sess, url, elapsed), nil
}

// Next advances to the head of the next queue, regenerating the queue from
// the current track when it is empty. Returns nil when no next track can be
// found; in that case the session is left untouched, so a dead end never
// corrupts the previous stack.
func (o *Orchestrator) Next(ctx context.Context, userID string) (*View, error) {
	unlock := o.store.Lock(userID)
	defer unlock()

	sess, ok := o.store.Get(userID)
	if !ok {
		zlog.Debug().Msgf("next with no active session: user=%s", userID)
		return nil, nil
	}

	previous := session.PushPrevious(sess.Previous, sess.CurrentTrackID)

	nextID, residual, ok := session.PopNext(sess.Next)
	if !ok {
		fresh := o.engine.Recommend(ctx, sess.CurrentTrackID, excludeSet(sess.CurrentTrackID, previous))
		nextID, residual, ok = session.PopNext(fresh)
		if !ok {
			zlog.Info().Msgf("no next track available: user=%s", userID)
			return nil, nil
		}
	}

	fresh := o.engine.Recommend(ctx, nextID, excludeSet(nextID, previous))
	next := session.Session{
		UserID:         userID,
		CurrentTrackID: nextID,
		Previous:       previous,
		Next:           mergeQueue(fresh, residual, nextID, previous),
	}
	view, err := o.commit(ctx, &next, TriggerNext)
	if err != nil {
		return nil, err
	}
	o.markIncomplete(ctx, sess.HistoryID)

	zlog.Info().Msgf("skipped to next track: user=%s track=%s", userID, nextID)
	return view, nil
}

// Previous returns to the most recently played track. Returns nil when the
// previous stack is empty; no state changes in that case. The old current
// track and old next queue seed the rebuilt queue for forward re-use.
func (o *Orchestrator) Previous(ctx context.Context, userID string) (*View, error) {
	unlock := o.store.Lock(userID)
	defer unlock()

	sess, ok := o.store.Get(userID)
	if !ok {
		zlog.Debug().Msgf("previous with no active session: user=%s", userID)
		return nil, nil
	}

	prevID, remaining, ok := session.PopPrevious(sess.Previous)
	if !ok {
		zlog.Info().Msgf("no previous track recorded: user=%s", userID)
		return nil, nil
	}

	residual := append([]string{sess.CurrentTrackID}, sess.Next...)
	fresh := o.engine.Recommend(ctx, prevID, excludeSet(prevID, remaining))
	prev := session.Session{
		UserID:         userID,
		CurrentTrackID: prevID,
		Previous:       remaining,
		Next:           mergeQueue(fresh, residual, prevID, remaining),
	}
	view, err := o.commit(ctx, &prev, TriggerPrevious)
	if err != nil {
		return nil, err
	}
	o.markIncomplete(ctx, sess.HistoryID)

	zlog.Info().Msgf("skipped to previous track: user=%s track=%s", userID, prevID)
	return view, nil
}

// Stop ends the user's session, marking its history record completed.
// Returns false when no session exists.
func (o *Orchestrator) Stop(ctx context.Context, userID string) bool {
	unlock := o.store.Lock(userID)
	defer unlock()

	sess, ok := o.store.Get(userID)
	if !ok {
		zlog.Debug().Msgf("stop with no active session: user=%s", userID)
		return false
	}

	if err := o.histStore.MarkComplete(ctx, sess.HistoryID); err != nil {
		zlog.Warn().Msgf("failed to mark history record complete: record=%s error=%v", sess.HistoryID, err)
	}
	o.store.Remove(userID)

	zlog.Info().Msgf("playback stopped: user=%s", userID)
	return true
}

// Status reports the user's current playback state. A session whose history
// record no longer resolves is inconsistent: it is dropped and reported as
// absent.
func (o *Orchestrator) Status(ctx context.Context, userID string) (*Status, error) {
	unlock := o.store.Lock(userID)
	defer unlock()

	sess, ok := o.store.Get(userID)
	if !ok {
		return nil, nil
	}

	rec, err := o.histStore.Find(ctx, sess.HistoryID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up history record")
	}
	if rec == nil {
		zlog.Warn().Msgf("history record missing, dropping session: user=%s record=%s", userID, sess.HistoryID)
		o.store.Remove(userID)
		return nil, nil
	}

	return &Status{
		TrackID:         sess.CurrentTrackID,
		Paused:          sess.Paused,
		Since:           rec.Timestamp,
		DurationSeconds: int64(time.Since(rec.Timestamp).Seconds()),
	}, nil
}

// History lists the user's playback history records, newest first.
func (o *Orchestrator) History(ctx context.Context, userID string, limit, offset int) ([]history.Record, error) {
	records, err := o.histStore.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list history")
	}
	return records, nil
}

// HistoryInRange lists the user's playback history records whose timestamps
// fall within [from, to], newest first. A zero bound is unbounded.
func (o *Orchestrator) HistoryInRange(ctx context.Context, userID string, from, to time.Time, limit, offset int) ([]history.Record, error) {
	records, err := o.histStore.ListByUserInRange(ctx, userID, from, to, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list history range")
	}
	return records, nil
}

// commit finalizes a transition to sess.CurrentTrackID: creates the history
// record, resolves the stream URL, records the time-to-play sample, stores
// the session, and builds the enriched view.
func (o *Orchestrator) commit(ctx context.Context, sess *session.Session, trigger string) (*View, error) {
	begin := time.Now()

	rec, err := o.histStore.Create(ctx, sess.UserID, sess.CurrentTrackID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create history record")
	}
	sess.HistoryID = rec.ID

	url, degraded := o.resolver.Resolve(ctx, sess.CurrentTrackID)
	elapsed := time.Since(begin)
	o.recordTimeToPlay(trigger, degraded, elapsed)

	o.store.Put(sess.UserID, *sess)
	return o.buildView(ctx, *sess, url, elapsed), nil
}

// markIncomplete flags a superseded history record. Best effort: failures
// are logged and never block navigation.
func (o *Orchestrator) markIncomplete(ctx context.Context, recordID string) {
	if recordID == "" {
		return
	}
	if err := o.histStore.MarkIncomplete(ctx, recordID); err != nil {
		zlog.Warn().Msgf("failed to mark history record incomplete: record=%s error=%v", recordID, err)
	}
}

// recordTimeToPlay emits the time-to-play sample. Degraded resolutions are
// tagged fallback instead of the triggering action.
func (o *Orchestrator) recordTimeToPlay(trigger string, degraded bool, elapsed time.Duration) {
	if o.metrics == nil {
		return
	}
	if degraded {
		trigger = TriggerFallback
	}
	o.metrics.RecordDuration(MetricTimeToPlay, trigger, elapsed)
}

// buildView enriches the session with track metadata and up to five
// recommendations resolved from the next queue.
func (o *Orchestrator) buildView(ctx context.Context, sess session.Session, url string, elapsed time.Duration) *View {
	view := &View{
		StreamURL:       url,
		Current:         o.lookupTrack(ctx, sess.CurrentTrackID),
		Recommendations: []track.Track{},
		TimeToPlay:      elapsed,
		TimeToPlayMs:    elapsed.Milliseconds(),
	}

	if id, ok := sess.PeekPrevious(); ok {
		view.Previous = o.lookupTrack(ctx, id)
	}
	if id, ok := sess.PeekNext(); ok {
		view.Next = o.lookupTrack(ctx, id)
	}

	for _, id := range sess.Next {
		if len(view.Recommendations) == viewRecommendationLimit {
			break
		}
		if t := o.lookupTrack(ctx, id); t != nil {
			view.Recommendations = append(view.Recommendations, *t)
		}
	}

	return view
}

// lookupTrack resolves track metadata, tolerating catalog misses.
func (o *Orchestrator) lookupTrack(ctx context.Context, id string) *track.Track {
	t, err := o.catalog.ByID(ctx, id)
	if err != nil {
		zlog.Warn().Msgf("track lookup failed: track=%s error=%v", id, err)
		return nil
	}
	return t
}
