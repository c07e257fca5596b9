package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// EventPublisher hands audit events off for asynchronous processing.
// Publish must not block the caller.
type EventPublisher interface {
	Publish(event domain.AuthEvent)
}

// AuditService records a single audit event.
type AuditService interface {
	Record(ctx context.Context, event domain.AuthEvent) error
}
