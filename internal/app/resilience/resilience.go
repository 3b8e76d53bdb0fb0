// Package resilience provides composable decorators for unreliable
// stream-URL resolution: retry, circuit breaker, timeout, and a fallback
// resolver that degrades to a low-bitrate placeholder URL instead of
// propagating upstream failure.
package resilience

import "context"

// Func resolves a playable URL for a track. Decorators wrap a Func and
// return a Func, so policies compose in any order.
type Func func(ctx context.Context, trackID string) (string, error)
