package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/auth-service/internal/core/domain"
)

func TestNewTokenIssuer_EmptySecret(t *testing.T) {
	if _, err := NewTokenIssuer(nil, time.Minute); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestNewTokenIssuer_DefaultTTL(t *testing.T) {
	issuer, err := NewTokenIssuer([]byte("k"), 0)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	if issuer.TTL() != DefaultTokenTTL {
		t.Fatalf("expected default ttl, got %v", issuer.TTL())
	}
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	t.Parallel()

	issuer, _ := NewTokenIssuer([]byte("super-secret"), time.Hour)
	now := time.Now()

	tok, err := issuer.Issue("user-123", "u@example.com", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	identity, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.ID != "user-123" || identity.Email != "u@example.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if identity.ExpiresAt != now.Add(time.Hour).Unix() {
		t.Fatalf("unexpected exp: %d", identity.ExpiresAt)
	}
	if identity.IssuedAt != now.Unix() {
		t.Fatalf("unexpected iat: %d", identity.IssuedAt)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	t.Parallel()

	issuer, _ := NewTokenIssuer([]byte("secret"), time.Minute)
	tok, err := issuer.Issue("u1", "u1@example.com", time.Now().Add(-2*time.Minute))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = issuer.Verify(tok)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected expiry cause in chain, got %v", err)
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	t.Parallel()

	signer, _ := NewTokenIssuer([]byte("right-secret"), time.Hour)
	verifier, _ := NewTokenIssuer([]byte("wrong-secret"), time.Hour)

	tok, _ := signer.Issue("u2", "u2@example.com", time.Now())
	if _, err := verifier.Verify(tok); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestTokenIssuer_Tampered(t *testing.T) {
	t.Parallel()

	issuer, _ := NewTokenIssuer([]byte("secret"), time.Hour)
	tok, _ := issuer.Issue("u3", "u3@example.com", time.Now())

	parts := strings.Split(tok, ".")
	forged, _ := NewTokenIssuer([]byte("secret"), time.Hour)
	other, _ := forged.Issue("admin", "admin@example.com", time.Now())
	parts[1] = strings.Split(other, ".")[1]

	if _, err := issuer.Verify(strings.Join(parts, ".")); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for tampered payload, got %v", err)
	}
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	issuer, _ := NewTokenIssuer([]byte("secret"), time.Hour)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"id":    "u4",
		"email": "u4@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := issuer.Verify(tok); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestTokenIssuer_RequiresExpiry(t *testing.T) {
	t.Parallel()

	issuer, _ := NewTokenIssuer([]byte("secret"), time.Hour)
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    "u5",
		"email": "u5@example.com",
	}).SignedString([]byte("secret"))

	if _, err := issuer.Verify(tok); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestTokenIssuer_Malformed(t *testing.T) {
	t.Parallel()

	issuer, _ := NewTokenIssuer([]byte("k"), time.Hour)
	if _, err := issuer.Verify("not.a.jwt"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
