package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

const collectionUsers = "users"

var _ ports.UserRepository = (*UserRepository)(nil)

// UserRepository implements ports.UserRepository on a Mongo collection.
// Email uniqueness is enforced by a unique index, see EnsureIndexes.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type phoneDoc struct {
	Number   string `bson:"number"`
	AreaCode string `bson:"area_code"`
}

type userDoc struct {
	ID           string     `bson:"_id"`
	Name         string     `bson:"name"`
	Email        string     `bson:"email"`
	PasswordHash string     `bson:"password_hash"`
	Phones       []phoneDoc `bson:"phones"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
	LastLoginAt  time.Time  `bson:"last_login_at"`
	SessionToken string     `bson:"session_token"`
}

func toUserDoc(u *domain.User) userDoc {
	phones := make([]phoneDoc, len(u.Phones))
	for i, p := range u.Phones {
		phones[i] = phoneDoc{Number: p.Number, AreaCode: p.AreaCode}
	}
	return userDoc{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Phones:       phones,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
		LastLoginAt:  u.LastLoginAt.UTC(),
		SessionToken: u.SessionToken,
	}
}

func (d userDoc) toDomain() *domain.User {
	phones := make([]domain.Phone, len(d.Phones))
	for i, p := range d.Phones {
		phones[i] = domain.Phone{Number: p.Number, AreaCode: p.AreaCode}
	}
	return &domain.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Phones:       phones,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
		LastLoginAt:  d.LastLoginAt.UTC(),
		SessionToken: d.SessionToken,
	}
}

// FindByEmail retrieves a user by exact, case-sensitive email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// Insert stores a new user document.
func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toUserDoc(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an existing user.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toUserDoc(user)
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
		"$set": bson.M{
			"name":          doc.Name,
			"phones":        doc.Phones,
			"updated_at":    doc.UpdatedAt,
			"last_login_at": doc.LastLoginAt,
			"session_token": doc.SessionToken,
		},
	})
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates the unique email index on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	})
	return err
}
