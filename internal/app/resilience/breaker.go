package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// ErrCircuitOpen is returned when the breaker rejects a call without
// invoking the upstream.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState represents the circuit breaker state.
type BreakerState int

const (
	StateClosed   BreakerState = iota // Calls pass through, outcomes are recorded
	StateOpen                         // Calls are rejected until the cooldown elapses
	StateHalfOpen                     // A bounded number of probe calls pass through
)

// String returns the string representation of the state.
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds circuit breaker thresholds.
type BreakerConfig struct {
	WindowSize       int           // Rolling window of recent call outcomes
	FailureThreshold float64       // Failure rate (0-100) that opens the circuit
	MinimumCalls     int           // Calls required in the window before the rate is evaluated
	OpenDuration     time.Duration // Cooldown before probing in half-open
	HalfOpenMaxCalls int           // Concurrent probe calls allowed while half-open
}

// Breaker is a count-based circuit breaker over a rolling outcome window.
// A failure rate at or above the threshold opens the circuit; after the
// cooldown the breaker admits a limited number of probes, closing again on
// the first success and reopening on a failed probe.
type Breaker struct {
	mu  sync.Mutex
	cfg BreakerConfig

	state    BreakerState
	outcomes []bool // true = failure
	pos      int
	filled   int

	openedAt       time.Time
	probesInFlight int

	now func() time.Time
}

// NewBreaker creates a breaker, applying defaults for unset thresholds.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 10
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 50
	}
	if cfg.MinimumCalls <= 0 {
		cfg.MinimumCalls = 5
	}
	if cfg.OpenDuration <= 0 {
		cfg.OpenDuration = 10 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 3
	}
	return &Breaker{
		cfg:      cfg,
		state:    StateClosed,
		outcomes: make([]bool, cfg.WindowSize),
		now:      time.Now,
	}
}

// State returns the current breaker state, applying the open-to-half-open
// transition if the cooldown has elapsed.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeProbeLocked()
	return b.state
}

// Wrap decorates next with the breaker policy.
func (b *Breaker) Wrap(next Func) Func {
	return func(ctx context.Context, trackID string) (string, error) {
		if err := b.allow(); err != nil {
			return "", err
		}
		url, err := next(ctx, trackID)
		b.record(err == nil)
		return url, err
	}
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.maybeProbeLocked()

	switch b.state {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probesInFlight >= b.cfg.HalfOpenMaxCalls {
			return ErrCircuitOpen
		}
		b.probesInFlight++
	}
	return nil
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.probesInFlight--
		if success {
			b.closeLocked()
		} else {
			b.openLocked()
		}
	case StateClosed:
		b.outcomes[b.pos] = !success
		b.pos = (b.pos + 1) % b.cfg.WindowSize
		if b.filled < b.cfg.WindowSize {
			b.filled++
		}
		if b.filled >= b.cfg.MinimumCalls && b.failureRateLocked() >= b.cfg.FailureThreshold {
			b.openLocked()
		}
	case StateOpen:
		// Late result from a call admitted before the circuit opened.
	}
}

// maybeProbeLocked moves an open breaker to half-open once the cooldown
// has elapsed. Must be called with b.mu held.
func (b *Breaker) maybeProbeLocked() {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenDuration {
		b.state = StateHalfOpen
		b.probesInFlight = 0
		zlog.Info().Msg("circuit breaker half-open, probing upstream")
	}
}

func (b *Breaker) openLocked() {
	b.state = StateOpen
	b.openedAt = b.now()
	zlog.Warn().Msgf("circuit breaker opened: failure_rate=%.1f window=%d", b.failureRateLocked(), b.filled)
}

func (b *Breaker) closeLocked() {
	b.state = StateClosed
	b.pos = 0
	b.filled = 0
	for i := range b.outcomes {
		b.outcomes[i] = false
	}
	zlog.Info().Msg("circuit breaker closed")
}

func (b *Breaker) failureRateLocked() float64 {
	if b.filled == 0 {
		return 0
	}
	failures := 0
	for i := 0; i < b.filled; i++ {
		if b.outcomes[i] {
			failures++
		}
	}
	return float64(failures) / float64(b.filled) * 100
}
