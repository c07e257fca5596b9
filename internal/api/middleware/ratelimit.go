package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/api/metrics"
)

// Counter increments a fixed-window counter and reports the hits so far and
// the time left in the window.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// KeyFunc derives the rate-limit bucket for a request.
type KeyFunc func(c echo.Context) string

// KeyByIP buckets requests per route and client IP.
func KeyByIP(c echo.Context) string {
	return c.Path() + ":" + c.RealIP()
}

// RateLimit rejects requests over max per window with 429. Counter failures
// let the request through.
func RateLimit(counter Counter, max int64, window time.Duration, keyFn KeyFunc, log zerolog.Logger) echo.MiddlewareFunc {
	if keyFn == nil {
		keyFn = KeyByIP
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			hits, ttl, err := counter.Hit(c.Request().Context(), keyFn(c), window)
			if err != nil {
				log.Warn().Err(err).Str("path", c.Path()).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}
			if hits > max {
				metrics.RateLimitedTotal.WithLabelValues(c.Path()).Inc()
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(ttl, window)))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}
			return next(c)
		}
	}
}

func retryAfterSeconds(ttl, window time.Duration) int {
	if ttl <= 0 {
		ttl = window
	}
	return int(math.Ceil(ttl.Seconds()))
}
