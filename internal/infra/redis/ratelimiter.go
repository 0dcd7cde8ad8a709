package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/labmanhq/labman/internal/ratelimit"
)

const (
	defaultMailPerSec int64 = 10
	backoffStep             = 25 * time.Millisecond
	backoffMax              = 100 * time.Millisecond
	windowSeconds           = 1
)

// mailLimitScript counts sends inside the current one-second window.
// The key carries the window timestamp, so expiry only has to clean up
// stale windows.
var mailLimitScript = goredis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
  return 0
end
return 1
`)

var _ ratelimit.RateLimiter = (*MailRateLimiter)(nil)

// MailRateLimiter throttles outbound notification mail per second. The
// counter lives in Redis so the cap holds across multiple API
// instances sharing one mail relay.
type MailRateLimiter struct {
	client    *goredis.Client
	perSecond int64
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	script    *goredis.Script
}

func NewMailRateLimiter(client *goredis.Client, perSecond int) (*MailRateLimiter, error) {
	return newMailRateLimiter(client, int64(perSecond), time.Now, sleepWithContext)
}

func newMailRateLimiter(
	client *goredis.Client,
	perSecond int64,
	nowFn func() time.Time,
	sleepFn func(ctx context.Context, d time.Duration) error,
) (*MailRateLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if perSecond <= 0 {
		perSecond = defaultMailPerSec
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if sleepFn == nil {
		sleepFn = sleepWithContext
	}

	return &MailRateLimiter{
		client:    client,
		perSecond: perSecond,
		now:       nowFn,
		sleep:     sleepFn,
		script:    mailLimitScript,
	}, nil
}

func (r *MailRateLimiter) Allow(ctx context.Context, channel string) (bool, error) {
	if r == nil || r.client == nil || r.script == nil {
		return false, fmt.Errorf("mail rate limiter is not initialized")
	}

	normalized := strings.ToLower(strings.TrimSpace(channel))
	if normalized == "" {
		return false, fmt.Errorf("channel is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	key := fmt.Sprintf("maillimit:%s:%d", normalized, r.now().UTC().Unix())
	result, err := r.script.Run(ctx, r.client, []string{key}, r.perSecond, windowSeconds).Int()
	if err != nil {
		return false, fmt.Errorf("failed to evaluate mail rate limit: %w", err)
	}

	return result == 1, nil
}

// Wait blocks until the current window admits one more send or the
// context ends.
func (r *MailRateLimiter) Wait(ctx context.Context, channel string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	backoff := backoffStep
	for {
		allowed, err := r.Allow(ctx, channel)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		if err := r.sleep(ctx, backoff); err != nil {
			return err
		}

		backoff += backoffStep
		if backoff > backoffMax {
			backoff = backoffMax
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
