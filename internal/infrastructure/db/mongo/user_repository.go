package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
)

const usersCollection = "users"

type UserRepository struct {
	client *mongo.Client
	users  *mongo.Collection
	auths  *mongo.Collection
}

func NewUserRepository(client *mongo.Client, db *mongo.Database) *UserRepository {
	return &UserRepository{
		client: client,
		users:  db.Collection(usersCollection),
		auths:  db.Collection(authenticationsCollection),
	}
}

type mongoUser struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Email      string             `bson:"email"`
	FirstName  string             `bson:"first_name"`
	LastName   string             `bson:"last_name"`
	Phone      string             `bson:"phone,omitempty"`
	Roles      []string           `bson:"roles"`
	Onboarding string             `bson:"onboarding,omitempty"`
	Active     bool               `bson:"active"`
	CreatedAt  int64              `bson:"created_at"`
	UpdatedAt  int64              `bson:"updated_at"`
}

func toMongoUser(u *domain.User) mongoUser {
	return mongoUser{
		Email:      domain.NormalizeEmail(u.Email),
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Phone:      u.Phone,
		Roles:      u.Roles,
		Onboarding: string(u.Onboarding),
		Active:     u.Active,
		CreatedAt:  u.CreatedAt.Unix(),
		UpdatedAt:  u.UpdatedAt.Unix(),
	}
}

func (mu mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:         mu.ID.Hex(),
		Email:      mu.Email,
		FirstName:  mu.FirstName,
		LastName:   mu.LastName,
		Phone:      mu.Phone,
		Roles:      mu.Roles,
		Onboarding: domain.OnboardingType(mu.Onboarding),
		Active:     mu.Active,
		CreatedAt:  unixToTime(mu.CreatedAt),
		UpdatedAt:  unixToTime(mu.UpdatedAt),
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	var mu mongoUser
	if err := r.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.users.FindOne(ctx, bson.M{"email": domain.NormalizeEmail(email)}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return mu.toDomain(), nil
}

// CreateWithAuthentication inserts the user and its first authentication in
// one client-session transaction, so a user without an authentication is
// never observable.
func (r *UserRepository) CreateWithAuthentication(ctx context.Context, user *domain.User, auth *domain.Authentication) (*domain.User, *domain.Authentication, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	session, err := r.client.StartSession()
	if err != nil {
		return nil, nil, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	var createdUser *domain.User
	var createdAuth *domain.Authentication

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		res, err := r.users.InsertOne(sc, toMongoUser(user))
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrDuplicateEmail
			}
			return nil, fmt.Errorf("insert user: %w", err)
		}

		userID := res.InsertedID.(primitive.ObjectID)
		auth.UserID = userID.Hex()

		authRes, err := r.auths.InsertOne(sc, toMongoAuthentication(auth))
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrDuplicateEmail
			}
			return nil, fmt.Errorf("insert authentication: %w", err)
		}

		u := *user
		u.ID = userID.Hex()
		u.Email = domain.NormalizeEmail(user.Email)
		a := *auth
		a.ID = authRes.InsertedID.(primitive.ObjectID).Hex()
		createdUser, createdAuth = &u, &a
		return nil, nil
	})
	if err != nil {
		return nil, nil, err
	}

	return createdUser, createdAuth, nil
}

// EnsureIndexes creates the unique email index. Emails are stored
// normalized, which makes the uniqueness case-insensitive.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: indexUnique(),
		},
	}

	_, err := r.users.Indexes().CreateMany(ctx, indexes)
	return err
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
