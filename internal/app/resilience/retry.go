package resilience

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// WithRetry retries next up to maxAttempts times, waiting delay between
// attempts. It gives up early when the context is done or the circuit
// breaker rejects the call, since further attempts cannot succeed within
// the cooldown anyway.
func WithRetry(next Func, maxAttempts int, delay time.Duration) Func {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return func(ctx context.Context, trackID string) (string, error) {
		var lastErr error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			url, err := next(ctx, trackID)
			if err == nil {
				return url, nil
			}
			lastErr = err

			if errors.Is(err, ErrCircuitOpen) {
				break
			}
			if attempt == maxAttempts {
				break
			}

			zlog.Warn().Msgf("stream resolution failed, retrying: track=%s attempt=%d/%d error=%v",
				trackID, attempt, maxAttempts, err)

			select {
			case <-ctx.Done():
				return "", errors.Wrap(ctx.Err(), "retry aborted")
			case <-time.After(delay):
			}
		}
		return "", lastErr
	}
}
