package ratelimit

import "context"

// Limiter admits or rejects an action for a client key (normally an IP).
// remaining is the quota left in the current window and may be an estimate.
type Limiter interface {
	Allow(ctx context.Context, key string) (ok bool, remaining int, err error)
}
