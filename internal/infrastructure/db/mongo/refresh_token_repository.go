package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
)

const refreshTokensCollection = "refresh_tokens"

type RefreshTokenRepository struct {
	coll *mongo.Collection
}

func NewRefreshTokenRepository(db *mongo.Database) *RefreshTokenRepository {
	return &RefreshTokenRepository{coll: db.Collection(refreshTokensCollection)}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) (*domain.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, token); err != nil {
		return nil, fmt.Errorf("insert refresh token: %w", err)
	}
	return token, nil
}

func (r *RefreshTokenRepository) FindByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var token domain.RefreshToken
	err := r.coll.FindOne(ctx, bson.M{"token_hash": hash}).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &token, nil
}

// Rotate marks the token as rotated and records its successor. The filter
// requires the active status, so of two concurrent rotations exactly one
// wins; the loser gets ErrTokenNotFound.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, hash, replacedByID string) (*domain.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"token_hash": hash, "status": string(domain.RefreshActive)}
	update := bson.M{"$set": bson.M{
		"status":      string(domain.RefreshRotated),
		"replaced_by": replacedByID,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var token domain.RefreshToken
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	return &token, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"token_hash": hash, "status": string(domain.RefreshActive)}
	update := bson.M{"$set": bson.M{"status": string(domain.RefreshRevoked)}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"user_id": userID, "status": string(domain.RefreshActive)}
	update := bson.M{"$set": bson.M{"status": string(domain.RefreshRevoked)}}

	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("revoke user tokens: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *RefreshTokenRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: indexUnique(),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
