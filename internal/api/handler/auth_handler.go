package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/api/metrics"
	"github.com/99minutos/auth-service/internal/api/middleware"
	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// AuthHandler handles signup, signin and the authenticated profile endpoint.
type AuthHandler struct {
	service ports.AuthService
	log     zerolog.Logger
}

func NewAuthHandler(service ports.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{service: service, log: log}
}

// Signup handles POST /signup.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account data"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		metrics.SignupsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return err
	}
	if err := c.Validate(&req); err != nil {
		metrics.SignupsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		h.log.Debug().Err(err).Msg("signup payload rejected")
		return err
	}

	user, err := h.service.Register(c.Request().Context(), toRegisterInput(req, c.RealIP()))
	if err != nil {
		metrics.SignupsTotal.WithLabelValues(signupResult(err)).Inc()
		return err
	}

	metrics.SignupsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Signin handles POST /signin.
//
// @Summary      Authenticate and obtain a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signinRequest  true  "Credentials"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /signin [post]
func (h *AuthHandler) Signin(c echo.Context) error {
	var req signinRequest
	if err := c.Bind(&req); err != nil {
		metrics.SigninsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return err
	}

	user, err := h.service.Authenticate(c.Request().Context(), ports.AuthenticateInput{
		Email:    req.Email,
		Password: req.Password,
		RemoteIP: c.RealIP(),
	})
	if err != nil {
		metrics.SigninsTotal.WithLabelValues(signinResult(err)).Inc()
		return err
	}

	metrics.SigninsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Profile handles GET /user.
//
// @Summary      Return the identity carried by the bearer token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  identityResponse
// @Failure      401  {object}  errorResponse
// @Router       /user [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	identity := h.service.Profile(middleware.IdentityFrom(c))
	if identity == nil {
		return domain.ErrUnauthorized
	}
	return c.JSON(http.StatusOK, toIdentityResponse(identity))
}

func signupResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return metrics.ResultInvalid
	case errors.Is(err, domain.ErrEmailExists):
		return metrics.ResultConflict
	default:
		return metrics.ResultError
	}
}

func signinResult(err error) string {
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return metrics.ResultRejected
	}
	return metrics.ResultError
}
