package ratelimit

import "context"

// RateLimiter caps outbound notification throughput per channel. Allow
// is a non-blocking probe; Wait blocks until a slot opens or the
// context ends.
type RateLimiter interface {
	Allow(ctx context.Context, channel string) (bool, error)
	Wait(ctx context.Context, channel string) error
}
