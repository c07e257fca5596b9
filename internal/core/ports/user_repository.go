package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// UserRepository is the persistence boundary of the account manager.
// Implementations must enforce email uniqueness on Insert themselves.
type UserRepository interface {
	// FindByEmail returns domain.ErrUserNotFound when no user has the email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Insert returns domain.ErrEmailExists when the email is already taken.
	Insert(ctx context.Context, user *domain.User) error
	// Update overwrites the stored record with the same ID.
	Update(ctx context.Context, user *domain.User) error
}
