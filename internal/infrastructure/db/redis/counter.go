package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// INCR and arm the expiry on the first hit of a window, atomically.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// WindowCounter counts hits per key inside fixed time windows.
// Key format: ratelimit:<key>
type WindowCounter struct {
	client *redis.Client
}

// NewWindowCounter wraps the given Redis client.
func NewWindowCounter(client *redis.Client) *WindowCounter {
	return &WindowCounter{client: client}
}

// Hit increments the counter for key and returns the count within the current
// window plus the time left until the window resets.
func (w *WindowCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	res, err := incrExpireScript.Run(ctx, w.client, []string{keyPrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("rate counter: %w", err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("rate counter: unexpected reply %v", res)
	}

	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl < 0 {
		ttl = window
	}
	return res[0], ttl, nil
}

// Ping reports whether Redis answers.
func (w *WindowCounter) Ping(ctx context.Context) error {
	return w.client.Ping(ctx).Err()
}
