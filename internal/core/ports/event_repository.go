package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// EventRepository persists the authentication audit trail.
type EventRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}
