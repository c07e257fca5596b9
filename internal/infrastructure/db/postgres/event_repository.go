package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

var _ ports.EventRepository = (*EventRepository)(nil)

// EventRepository appends to the auth_events table.
type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO auth_events (kind, user_id, email, remote_ip, occurred_at)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5)
	`, string(event.Kind), event.UserID, event.Email, event.RemoteIP, event.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}
