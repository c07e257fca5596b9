package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// DefaultBcryptCost is the work factor applied to new password hashes.
const DefaultBcryptCost = 10

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

var (
	_ ports.AuthService   = (*AuthService)(nil)
	_ ports.TokenVerifier = (*AuthService)(nil)
)

// AuthService implements registration, sign-in and token verification.
type AuthService struct {
	repo       ports.UserRepository
	tokens     *TokenIssuer
	events     ports.EventPublisher
	bcryptCost int
	now        func() time.Time
	newID      func() string
	log        zerolog.Logger
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func WithIDGenerator(newID func() string) AuthOption {
	return func(s *AuthService) { s.newID = newID }
}

// WithEventPublisher enables the audit trail.
func WithEventPublisher(p ports.EventPublisher) AuthOption {
	return func(s *AuthService) { s.events = p }
}

func WithLogger(log zerolog.Logger) AuthOption {
	return func(s *AuthService) { s.log = log }
}

func NewAuthService(repo ports.UserRepository, tokens *TokenIssuer, opts ...AuthOption) *AuthService {
	s := &AuthService{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: DefaultBcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      func() string { return uuid.NewString() },
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user. The email pre-check and the insert are separate
// calls; the repository's own uniqueness check settles concurrent signups.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" || in.Phones == nil {
		return nil, domain.ErrValidation
	}
	if len(in.Password) > MaxPasswordBytes {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrPasswordTooLong)
	}

	_, err := s.repo.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, domain.ErrEmailExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           s.newID(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Phones:       append(make([]domain.Phone, 0, len(in.Phones)), in.Phones...),
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  now,
	}

	user.SessionToken, err = s.tokens.Issue(user.ID, user.Email, now)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	if err := s.repo.Insert(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailExists) {
			return nil, domain.ErrEmailExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	s.publish(domain.EventSignup, user.ID, user.Email, in.RemoteIP, now)
	return user, nil
}

// Authenticate verifies credentials and rotates the stored session token.
// Unknown email and wrong password yield the same error.
func (s *AuthService) Authenticate(ctx context.Context, in ports.AuthenticateInput) (*domain.User, error) {
	now := s.now()

	user, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.publish(domain.EventSigninFailed, "", in.Email, in.RemoteIP, now)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		s.publish(domain.EventSigninFailed, user.ID, in.Email, in.RemoteIP, now)
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email, now)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	user.LastLoginAt = now
	user.SessionToken = token

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user signed in")
	s.publish(domain.EventSignin, user.ID, user.Email, in.RemoteIP, now)
	return user, nil
}

// VerifyToken decodes a bearer token without touching the repository.
func (s *AuthService) VerifyToken(token string) (*domain.Identity, error) {
	return s.tokens.Verify(token)
}

// Profile echoes the verified claims. The stored record is not re-read, so
// changes made after issuance stay invisible until the next sign-in.
func (s *AuthService) Profile(identity *domain.Identity) *domain.Identity {
	if identity == nil {
		return nil
	}
	out := *identity
	return &out
}

func (s *AuthService) publish(kind domain.AuthEventKind, userID, email, remoteIP string, at time.Time) {
	if s.events == nil {
		return
	}
	s.events.Publish(domain.AuthEvent{
		Kind:       kind,
		UserID:     userID,
		Email:      email,
		RemoteIP:   remoteIP,
		OccurredAt: at,
	})
}
