package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
)

const (
	msgNotFound       = "Endpoint not found"
	msgInvalidPayload = "invalid payload"
	msgInternal       = "internal server error"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Message string `json:"message"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Turns every unmatched route or method into the same 404.
//   - Logs unexpected errors without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Known domain errors map to deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrPasswordTooLong):
		return http.StatusBadRequest, domain.ErrPasswordTooLong.Error()
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, domain.ErrValidation.Error()
	case errors.Is(err, domain.ErrEmailExists):
		return http.StatusConflict, domain.ErrEmailExists.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, domain.ErrUnauthorized.Error()
	}

	// Echo's own errors (bind failures, router misses, rate limiting).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			return http.StatusNotFound, msgNotFound
		case http.StatusBadRequest, http.StatusUnsupportedMediaType:
			log.Debug().Err(err).Str("path", c.Path()).Msg("malformed request body")
			return http.StatusBadRequest, msgInvalidPayload
		case http.StatusUnauthorized:
			return http.StatusUnauthorized, domain.ErrUnauthorized.Error()
		}
		if he.Code < http.StatusInternalServerError {
			return he.Code, fmt.Sprintf("%v", he.Message)
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, msgInternal
}
