package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/api/metrics"
	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// IdentityKey is the echo context key holding the verified *domain.Identity.
const IdentityKey = "identity"

// Auth validates the bearer token and injects the identity into context.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				metrics.TokenVerificationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
				return domain.ErrUnauthorized
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				metrics.TokenVerificationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
				return domain.ErrUnauthorized
			}

			identity, err := verifier.VerifyToken(strings.TrimSpace(parts[1]))
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
				return err
			}

			metrics.TokenVerificationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
			c.Set(IdentityKey, identity)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by Auth, or nil.
func IdentityFrom(c echo.Context) *domain.Identity {
	identity, _ := c.Get(IdentityKey).(*domain.Identity)
	return identity
}
