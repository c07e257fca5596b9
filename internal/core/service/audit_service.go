package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

type auditService struct {
	repo ports.EventRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService persisting into repo.
func NewAuditService(repo ports.EventRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

func (s *auditService) Record(ctx context.Context, event domain.AuthEvent) error {
	if event.Kind == "" {
		return fmt.Errorf("record audit event: missing kind")
	}
	if err := s.repo.InsertEvent(ctx, &event); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}

	s.log.Debug().
		Str("kind", string(event.Kind)).
		Str("user_id", event.UserID).
		Str("remote_ip", event.RemoteIP).
		Msg("audit event recorded")
	return nil
}
