package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
)

const authenticationsCollection = "authentications"

type AuthenticationRepository struct {
	coll *mongo.Collection
}

func NewAuthenticationRepository(db *mongo.Database) *AuthenticationRepository {
	return &AuthenticationRepository{coll: db.Collection(authenticationsCollection)}
}

type mongoAuthentication struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"user_id"`
	Provider     string             `bson:"provider"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash,omitempty"`
	Subject      string             `bson:"subject,omitempty"`
	Verified     bool               `bson:"verified"`
	Active       bool               `bson:"active"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
}

func toMongoAuthentication(a *domain.Authentication) mongoAuthentication {
	return mongoAuthentication{
		UserID:       a.UserID,
		Provider:     string(a.Provider),
		Email:        domain.NormalizeEmail(a.Email),
		PasswordHash: a.PasswordHash,
		Subject:      a.Subject,
		Verified:     a.Verified,
		Active:       a.Active,
		CreatedAt:    a.CreatedAt.Unix(),
		UpdatedAt:    a.UpdatedAt.Unix(),
	}
}

func (ma mongoAuthentication) toDomain() *domain.Authentication {
	return &domain.Authentication{
		ID:           ma.ID.Hex(),
		UserID:       ma.UserID,
		Provider:     domain.Provider(ma.Provider),
		Email:        ma.Email,
		PasswordHash: ma.PasswordHash,
		Subject:      ma.Subject,
		Verified:     ma.Verified,
		Active:       ma.Active,
		CreatedAt:    unixToTime(ma.CreatedAt),
		UpdatedAt:    unixToTime(ma.UpdatedAt),
	}
}

func (r *AuthenticationRepository) FindByProviderSubject(ctx context.Context, provider domain.Provider, subject string) (*domain.Authentication, error) {
	return r.findOne(ctx, bson.M{"provider": string(provider), "subject": subject})
}

func (r *AuthenticationRepository) FindByProviderEmail(ctx context.Context, provider domain.Provider, email string) (*domain.Authentication, error) {
	return r.findOne(ctx, bson.M{"provider": string(provider), "email": domain.NormalizeEmail(email)})
}

func (r *AuthenticationRepository) findOne(ctx context.Context, filter bson.M) (*domain.Authentication, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ma mongoAuthentication
	if err := r.coll.FindOne(ctx, filter).Decode(&ma); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAuthNotFound
		}
		return nil, fmt.Errorf("find authentication: %w", err)
	}
	return ma.toDomain(), nil
}

func (r *AuthenticationRepository) Create(ctx context.Context, auth *domain.Authentication) (*domain.Authentication, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := auth.Validate(); err != nil {
		return nil, err
	}

	res, err := r.coll.InsertOne(ctx, toMongoAuthentication(auth))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert authentication: %w", err)
	}

	created := *auth
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

// EnsureIndexes enforces one authentication per (user, provider) and backs
// the provider lookups.
func (r *AuthenticationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "provider", Value: 1}},
			Options: indexUnique(),
		},
		{Keys: bson.D{{Key: "provider", Value: 1}, {Key: "subject", Value: 1}}},
		{Keys: bson.D{{Key: "provider", Value: 1}, {Key: "email", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func indexUnique() *options.IndexOptions {
	return options.Index().SetUnique(true)
}
