package resilience

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// DefaultFallbackPrefix is the low-bitrate placeholder URL template used
// when no prefix is configured.
const DefaultFallbackPrefix = "https://cdn.example/low-bitrate/"

// Config holds the full resilience policy for stream resolution.
type Config struct {
	MaxAttempts    int           // Retry attempts per resolution
	RetryDelay     time.Duration // Wait between attempts
	Timeout        time.Duration // Deadline per attempt
	FallbackPrefix string        // Prefix for the degraded placeholder URL
	Breaker        BreakerConfig
}

// Resolver resolves stream URLs through the composed policy chain
// retry(breaker(timeout(upstream))) and degrades to a deterministic
// placeholder URL when the chain is exhausted. Resolve never fails.
type Resolver struct {
	resolve Func
	breaker *Breaker
	prefix  string
}

// NewResolver wraps upstream with the configured policies.
func NewResolver(upstream Func, cfg Config) *Resolver {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.FallbackPrefix == "" {
		cfg.FallbackPrefix = DefaultFallbackPrefix
	}

	breaker := NewBreaker(cfg.Breaker)
	chain := WithRetry(breaker.Wrap(WithTimeout(upstream, cfg.Timeout)), cfg.MaxAttempts, cfg.RetryDelay)

	return &Resolver{
		resolve: chain,
		breaker: breaker,
		prefix:  cfg.FallbackPrefix,
	}
}

// Resolve returns a playable URL for the track and whether the fallback
// placeholder was used because the upstream is degraded.
func (r *Resolver) Resolve(ctx context.Context, trackID string) (string, bool) {
	url, err := r.resolve(ctx, trackID)
	if err != nil {
		zlog.Warn().Msgf("stream resolution degraded, using fallback: track=%s breaker=%s error=%v",
			trackID, r.breaker.State(), err)
		return r.prefix + trackID, true
	}
	return url, false
}

// BreakerState exposes the breaker state for status reporting.
func (r *Resolver) BreakerState() BreakerState {
	return r.breaker.State()
}
