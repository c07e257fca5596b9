package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// DefaultTokenTTL is the lifetime of a session token.
const DefaultTokenTTL = 30 * time.Minute

type sessionClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens carrying {id, email}.
// The secret is fixed at construction and never re-read.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token issuer: empty signing secret")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{
		secret: secret,
		ttl:    ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// TTL reports how long issued tokens stay valid.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Issue signs a token for the given identity, valid from now for the issuer TTL.
func (t *TokenIssuer) Issue(id, email string, now time.Time) (string, error) {
	claims := sessionClaims{
		UserID: id,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry. Every failure maps to
// domain.ErrUnauthorized; the underlying reason is kept in the chain.
func (t *TokenIssuer) Verify(token string) (*domain.Identity, error) {
	claims := &sessionClaims{}
	parsed, err := t.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	identity := &domain.Identity{ID: claims.UserID, Email: claims.Email}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return identity, nil
}
