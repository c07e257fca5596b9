package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// RegisterInput carries the signup payload after boundary validation.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phones   []domain.Phone
	RemoteIP string
}

// AuthenticateInput carries the signin payload.
type AuthenticateInput struct {
	Email    string
	Password string
	RemoteIP string
}

// AuthService defines the account and session use cases.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, in AuthenticateInput) (*domain.User, error)
	Profile(identity *domain.Identity) *domain.Identity
}

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(token string) (*domain.Identity, error)
}
