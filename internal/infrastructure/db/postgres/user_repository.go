package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// SQLSTATE unique_violation
const uniqueViolation = "23505"

var _ ports.UserRepository = (*UserRepository)(nil)

// UserRepository implements ports.UserRepository on the users and user_phones tables.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	u := &domain.User{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, created_at, updated_at, last_login_at, session_token
		FROM users
		WHERE email = $1
	`, email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt, &u.SessionToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT number, area_code
		FROM user_phones
		WHERE user_id = $1
		ORDER BY position
	`, u.ID)
	if err != nil {
		return nil, fmt.Errorf("find user phones: %w", err)
	}
	u.Phones, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Phone, error) {
		var p domain.Phone
		err := row.Scan(&p.Number, &p.AreaCode)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan user phones: %w", err)
	}
	if u.Phones == nil {
		u.Phones = []domain.Phone{}
	}

	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	u.LastLoginAt = u.LastLoginAt.UTC()
	return u, nil
}

// Insert writes the user and its phones in one transaction.
func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert user: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, created_at, updated_at, last_login_at, session_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.ID, user.Name, user.Email, user.PasswordHash,
		user.CreatedAt, user.UpdatedAt, user.LastLoginAt, user.SessionToken)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	if len(user.Phones) > 0 {
		batch := &pgx.Batch{}
		for i, p := range user.Phones {
			batch.Queue(`INSERT INTO user_phones (user_id, position, number, area_code) VALUES ($1, $2, $3, $4)`,
				user.ID, i, p.Number, p.AreaCode)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert user phones: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert user: %w", err)
	}
	return nil
}

// Update persists the fields a sign-in may change. Phones are immutable here.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET name = $1, updated_at = $2, last_login_at = $3, session_token = $4
		WHERE id = $5
	`, user.Name, user.UpdatedAt, user.LastLoginAt, user.SessionToken, user.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
