package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 5 * time.Second
	// Counter calls run on the request path.
	opTimeout = 250 * time.Millisecond
)

// Config holds the rate-limiter Redis settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration // dial and startup ping; dialTimeout when zero
}

// Connect opens a client tuned for short counter operations and checks that
// the server answers before returning it.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	dial := cfg.Timeout
	if dial <= 0 {
		dial = dialTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dial,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
		MaxRetries:   -1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dial)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}
