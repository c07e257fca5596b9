// Package memory provides process-local repositories, used for local runs
// and end-to-end tests. Data is lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

var (
	_ ports.UserRepository  = (*UserRepository)(nil)
	_ ports.EventRepository = (*EventRepository)(nil)
)

// UserRepository keeps users keyed by email. All access is serialised by mu,
// which also makes the uniqueness check in Insert atomic.
type UserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*domain.User
	emailOf map[string]string // id -> email
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byEmail: make(map[string]*domain.User),
		emailOf: make(map[string]string),
	}
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (r *UserRepository) Insert(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return domain.ErrEmailExists
	}
	r.byEmail[user.Email] = user.Clone()
	r.emailOf[user.ID] = user.Email
	return nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email, ok := r.emailOf[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	stored := r.byEmail[email]
	stored.Name = user.Name
	stored.UpdatedAt = user.UpdatedAt
	stored.LastLoginAt = user.LastLoginAt
	stored.SessionToken = user.SessionToken
	return nil
}

// Len reports the number of stored users.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail)
}

// EventRepository is an append-only in-memory audit log.
type EventRepository struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func NewEventRepository() *EventRepository {
	return &EventRepository{}
}

func (r *EventRepository) InsertEvent(_ context.Context, event *domain.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

// Events returns a snapshot of the recorded events in insertion order.
func (r *EventRepository) Events() []domain.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuthEvent, len(r.events))
	copy(out, r.events)
	return out
}
