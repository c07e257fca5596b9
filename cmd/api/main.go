// @title                       Auth Service API
// @version                     1.0
// @description                 Account registration, sign-in and bearer token verification.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/api"
	"github.com/99minutos/auth-service/internal/api/handler"
	"github.com/99minutos/auth-service/internal/api/middleware"
	"github.com/99minutos/auth-service/internal/core/ports"
	"github.com/99minutos/auth-service/internal/core/service"
	"github.com/99minutos/auth-service/internal/infrastructure/db/memory"
	mongostore "github.com/99minutos/auth-service/internal/infrastructure/db/mongo"
	pgstore "github.com/99minutos/auth-service/internal/infrastructure/db/postgres"
	redisstore "github.com/99minutos/auth-service/internal/infrastructure/db/redis"
	"github.com/99minutos/auth-service/internal/infrastructure/queue"
	"github.com/99minutos/auth-service/internal/pkg/config"
	"github.com/99minutos/auth-service/pkg/logger"
)

func main() {
	_ = godotenv.Load() // load .env if present

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "auth-service",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server exited properly")
}

// store bundles the repositories of the selected backend.
type store struct {
	users  ports.UserRepository
	events ports.EventRepository
	checks map[string]handler.Checker
	close  func()
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		users := mongostore.NewUserRepository(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
		return &store{
			users:  users,
			events: mongostore.NewEventRepository(db),
			checks: map[string]handler.Checker{
				"mongodb": func(ctx context.Context) error { return mongostore.Ping(ctx, db) },
			},
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil

	case config.DriverPostgres:
		if err := pgstore.Migrate(cfg.Postgres.DSN); err != nil {
			return nil, err
		}
		pool, err := pgstore.Connect(ctx, pgstore.Config{DSN: cfg.Postgres.DSN, MaxConns: cfg.Postgres.MaxConns})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("connected to postgres")
		return &store{
			users:  pgstore.NewUserRepository(pool),
			events: pgstore.NewEventRepository(pool),
			checks: map[string]handler.Checker{
				"postgres": pool.Ping,
			},
			close: pool.Close,
		}, nil

	case config.DriverMemory:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return &store{
			users:  memory.NewUserRepository(),
			events: memory.NewEventRepository(),
			checks: map[string]handler.Checker{},
			close:  func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.close()

	var counter middleware.Counter
	if cfg.RateLimitEnabled() {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = rdb.Close() }()
		wc := redisstore.NewWindowCounter(rdb)
		counter = wc
		st.checks["redis"] = wc.Ping
		log.Info().Int("max", cfg.RateLimit.Max).Dur("window", cfg.RateLimit.Window).Msg("rate limiter enabled")
	}

	// Audit workers stop after the HTTP server has drained.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, service.NewAuditService(st.events, log), log)
	workersDone := dispatcher.Start(workerCtx)

	tokens, err := service.NewTokenIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	if err != nil {
		cancelWorkers()
		return err
	}
	authService := service.NewAuthService(st.users, tokens,
		service.WithBcryptCost(cfg.Auth.BcryptCost),
		service.WithEventPublisher(dispatcher),
		service.WithLogger(log),
	)

	e := api.NewRouter(api.Deps{
		Auth:            authService,
		Verifier:        authService,
		Log:             log,
		RateCounter:     counter,
		RateLimitMax:    int64(cfg.RateLimit.Max),
		RateLimitWindow: cfg.RateLimit.Window,
		Readiness:       st.checks,
		MetricsEnabled:  cfg.MetricsEnabled,
		SwaggerEnabled:  cfg.SwaggerEnabled,

		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	srvErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
	case err := <-srvErr:
		cancelWorkers()
		<-workersDone
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	cancelWorkers()
	select {
	case <-workersDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("audit workers did not stop before shutdown timeout")
	}
	return nil
}
