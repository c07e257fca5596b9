package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Fatalf("unexpected port: %s", cfg.Port)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Fatalf("unexpected token ttl: %v", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.BcryptCost != 10 {
		t.Fatalf("unexpected bcrypt cost: %d", cfg.Auth.BcryptCost)
	}
	if cfg.Store.Driver != DriverMongo {
		t.Fatalf("unexpected driver: %s", cfg.Store.Driver)
	}
	if cfg.RateLimitEnabled() {
		t.Fatalf("rate limiter must be off without REDIS_ADDR")
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development env by default")
	}
	if cfg.TrustProxyHeaders {
		t.Fatalf("proxy headers must not be trusted by default")
	}
}

func TestLoad_SecretRequired(t *testing.T) {
	if _, err := load(context.Background(), envconfig.MapLookuper(map[string]string{})); err == nil {
		t.Fatalf("expected error when JWT_SECRET is missing")
	}
}

func TestLoad_UnknownDriver(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":   "s",
		"STORE_DRIVER": "cassandra",
	}))
	if err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":        "s",
		"STORE_DRIVER":      "postgres",
		"REDIS_ADDR":        "localhost:6379",
		"RATE_LIMIT_MAX":    "5",
		"RATE_LIMIT_WINDOW": "30s",
		"ENV":               "production",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.RateLimitEnabled() {
		t.Fatalf("expected rate limiter enabled")
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Fatalf("unexpected window: %v", cfg.RateLimit.Window)
	}
	if cfg.IsDevelopment() {
		t.Fatalf("expected production env")
	}
}
