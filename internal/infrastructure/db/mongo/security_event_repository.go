package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
)

const securityEventsCollection = "security_events"

type SecurityEventRepository struct {
	coll *mongo.Collection
}

func NewSecurityEventRepository(db *mongo.Database) *SecurityEventRepository {
	return &SecurityEventRepository{coll: db.Collection(securityEventsCollection)}
}

func (r *SecurityEventRepository) Record(ctx context.Context, event *domain.SecurityEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}
