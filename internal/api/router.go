package api

import (
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/auth-service/docs"
	"github.com/99minutos/auth-service/internal/api/handler"
	"github.com/99minutos/auth-service/internal/api/middleware"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// Deps carries everything the router wires into handlers and middleware.
type Deps struct {
	Auth     ports.AuthService
	Verifier ports.TokenVerifier
	Log      zerolog.Logger

	// RateCounter enables the limiter on /signup and /signin when non-nil.
	RateCounter     middleware.Counter
	RateLimitMax    int64
	RateLimitWindow time.Duration

	// Readiness checks reported by /health/ready, keyed by dependency name.
	Readiness map[string]handler.Checker

	MetricsEnabled bool
	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	SwaggerEnabled bool

	// TrustProxyHeaders reads the client IP from X-Forwarded-For sent by a
	// proxy on a private or loopback address. Otherwise the socket peer is used.
	TrustProxyHeaders bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.IPExtractor = echo.ExtractIPDirect()
	if d.TrustProxyHeaders {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))

	if d.MetricsEnabled {
		registerer, gatherer := d.Registerer, d.Gatherer
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "http",
			Registerer: registerer,
			Skipper:    skipOperational,
		}))
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: gatherer,
		}))
	}

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Log)

	var limited []echo.MiddlewareFunc
	if d.RateCounter != nil {
		limited = append(limited, middleware.RateLimit(d.RateCounter, d.RateLimitMax, d.RateLimitWindow, middleware.KeyByIP, d.Log))
	}

	e.POST("/signup", authHandler.Signup, limited...)
	e.POST("/signin", authHandler.Signin, limited...)
	e.GET("/user", authHandler.Profile, middleware.Auth(d.Verifier))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Readiness)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	if d.SwaggerEnabled {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	return e
}

func skipOperational(c echo.Context) bool {
	p := c.Path()
	return p == "/metrics" || strings.HasPrefix(p, "/health") || strings.HasPrefix(p, "/swagger")
}
