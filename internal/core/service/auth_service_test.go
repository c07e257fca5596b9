package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

type stubUserRepo struct {
	users     map[string]*domain.User
	findErr   error
	insertErr error
	updateErr error
	inserts   int
	updates   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (r *stubUserRepo) Insert(_ context.Context, user *domain.User) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, exists := r.users[user.Email]; exists {
		return domain.ErrEmailExists
	}
	r.inserts++
	r.users[user.Email] = user.Clone()
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.users[user.Email]; !ok {
		return domain.ErrUserNotFound
	}
	r.updates++
	r.users[user.Email] = user.Clone()
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (p *recordingPublisher) Publish(e domain.AuthEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) kinds() []domain.AuthEventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.AuthEventKind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

func newTestService(t *testing.T, repo ports.UserRepository, opts ...AuthOption) *AuthService {
	t.Helper()
	issuer, err := NewTokenIssuer([]byte("secret"), DefaultTokenTTL)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	opts = append([]AuthOption{WithBcryptCost(bcrypt.MinCost)}, opts...)
	return NewAuthService(repo, issuer, opts...)
}

func validInput() ports.RegisterInput {
	return ports.RegisterInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "pass123",
		Phones:   []domain.Phone{{Number: "987654321", AreaCode: "11"}},
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	pub := &recordingPublisher{}
	svc := newTestService(t, repo, WithEventPublisher(pub), WithIDGenerator(func() string { return "user-1" }))

	user, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("unexpected id: %s", user.ID)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if !user.CreatedAt.Equal(user.UpdatedAt) || !user.CreatedAt.Equal(user.LastLoginAt) {
		t.Fatalf("timestamps differ: %v %v %v", user.CreatedAt, user.UpdatedAt, user.LastLoginAt)
	}
	if user.SessionToken == "" {
		t.Fatalf("expected session token")
	}
	if len(user.Phones) != 1 || user.Phones[0].AreaCode != "11" {
		t.Fatalf("unexpected phones: %+v", user.Phones)
	}
	if repo.inserts != 1 {
		t.Fatalf("expected one insert, got %d", repo.inserts)
	}
	if kinds := pub.kinds(); len(kinds) != 1 || kinds[0] != domain.EventSignup {
		t.Fatalf("unexpected events: %v", kinds)
	}
}

func TestAuthService_Register_TokenCarriesIdentity(t *testing.T) {
	svc := newTestService(t, newStubUserRepo())

	user, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(user.SessionToken, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["id"] != user.ID || claims["email"] != user.Email {
		t.Fatalf("unexpected claims: %v", claims)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		t.Fatalf("missing exp: %v", err)
	}
	if ttl := exp.Sub(user.CreatedAt); ttl > DefaultTokenTTL+time.Second || ttl < DefaultTokenTTL-time.Second {
		t.Fatalf("unexpected ttl: %v", ttl)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	cases := map[string]func(in *ports.RegisterInput){
		"missing name":     func(in *ports.RegisterInput) { in.Name = "" },
		"missing email":    func(in *ports.RegisterInput) { in.Email = "" },
		"missing password": func(in *ports.RegisterInput) { in.Password = "" },
		"missing phones":   func(in *ports.RegisterInput) { in.Phones = nil },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			repo := newStubUserRepo()
			svc := newTestService(t, repo)

			in := validInput()
			mutate(&in)
			if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if repo.inserts != 0 {
				t.Fatalf("nothing should be persisted")
			}
		})
	}
}

func TestAuthService_Register_PasswordLength(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)

	in := validInput()
	in.Password = strings.Repeat("a", MaxPasswordBytes+1)
	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, domain.ErrValidation) || !errors.Is(err, domain.ErrPasswordTooLong) {
		t.Fatalf("expected ErrValidation wrapping ErrPasswordTooLong, got %v", err)
	}
	if repo.inserts != 0 {
		t.Fatalf("nothing should be persisted")
	}

	in.Password = strings.Repeat("a", MaxPasswordBytes)
	user, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("register at limit: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		t.Fatalf("hash does not verify")
	}
}

func TestAuthService_Register_EmptyPhonesAccepted(t *testing.T) {
	svc := newTestService(t, newStubUserRepo())

	in := validInput()
	in.Phones = []domain.Phone{}
	user, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Phones == nil || len(user.Phones) != 0 {
		t.Fatalf("expected empty, non-nil phones: %#v", user.Phones)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)

	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	other := validInput()
	other.Name = "Someone Else"
	other.Password = "different"
	if _, err := svc.Register(context.Background(), other); !errors.Is(err, domain.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	if repo.inserts != 1 {
		t.Fatalf("expected a single insert, got %d", repo.inserts)
	}
}

func TestAuthService_Register_InsertRaceReportsConflict(t *testing.T) {
	repo := newStubUserRepo()
	repo.insertErr = domain.ErrEmailExists
	svc := newTestService(t, repo)

	if _, err := svc.Register(context.Background(), validInput()); err != domain.ErrEmailExists {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestAuthService_Register_RepositoryFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("connection reset")
	svc := newTestService(t, repo)

	_, err := svc.Register(context.Background(), validInput())
	if err == nil || errors.Is(err, domain.ErrEmailExists) || errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected wrapped infrastructure error, got %v", err)
	}
}

func TestAuthService_Authenticate_Success(t *testing.T) {
	repo := newStubUserRepo()
	pub := &recordingPublisher{}
	clock := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, repo, WithEventPublisher(pub), WithClock(func() time.Time { return clock }))

	created, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	clock = clock.Add(5 * time.Minute)
	user, err := svc.Authenticate(context.Background(), ports.AuthenticateInput{Email: "alice@example.com", Password: "pass123"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !user.LastLoginAt.Equal(clock) {
		t.Fatalf("last login not refreshed: %v", user.LastLoginAt)
	}
	if !user.UpdatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("updated_at should not change on sign-in")
	}
	if user.SessionToken == created.SessionToken {
		t.Fatalf("expected a new session token")
	}
	stored := repo.users["alice@example.com"]
	if stored.SessionToken != user.SessionToken || !stored.LastLoginAt.Equal(clock) {
		t.Fatalf("sign-in not persisted: %+v", stored)
	}
	kinds := pub.kinds()
	if len(kinds) != 2 || kinds[1] != domain.EventSignin {
		t.Fatalf("unexpected events: %v", kinds)
	}
}

func TestAuthService_Authenticate_SameErrorForUnknownAndWrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	pub := &recordingPublisher{}
	svc := newTestService(t, repo, WithEventPublisher(pub))

	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPass := svc.Authenticate(context.Background(), ports.AuthenticateInput{Email: "alice@example.com", Password: "bad"})
	_, unknown := svc.Authenticate(context.Background(), ports.AuthenticateInput{Email: "ghost@example.com", Password: "pass123"})

	if wrongPass != domain.ErrInvalidCredentials || unknown != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", wrongPass, unknown)
	}
	if repo.updates != 0 {
		t.Fatalf("failed sign-ins must not persist anything")
	}
	kinds := pub.kinds()
	if len(kinds) != 3 || kinds[1] != domain.EventSigninFailed || kinds[2] != domain.EventSigninFailed {
		t.Fatalf("unexpected events: %v", kinds)
	}
}

func TestAuthService_Authenticate_UpdateFailure(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	repo.updateErr = errors.New("write concern")
	_, err := svc.Authenticate(context.Background(), ports.AuthenticateInput{Email: "alice@example.com", Password: "pass123"})
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}

func TestAuthService_VerifyToken_RoundTrip(t *testing.T) {
	svc := newTestService(t, newStubUserRepo())

	user, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	identity, err := svc.VerifyToken(user.SessionToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.ID != user.ID || identity.Email != user.Email {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	profile := svc.Profile(identity)
	if *profile != *identity {
		t.Fatalf("profile should echo claims: %+v", profile)
	}
}

func TestAuthService_Profile_Nil(t *testing.T) {
	svc := newTestService(t, newStubUserRepo())
	if svc.Profile(nil) != nil {
		t.Fatalf("expected nil profile")
	}
}
