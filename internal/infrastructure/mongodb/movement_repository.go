package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/inventory-ops-service/internal/domain"
)

// MovementRepository reads the append-only movement log. All writes go
// through LedgerRepository.Apply; this repository never mutates.
type MovementRepository struct {
	collection *mongo.Collection
}

// NewMovementRepository creates a new MovementRepository
func NewMovementRepository(db *mongo.Database) *MovementRepository {
	return &MovementRepository{collection: db.Collection("movements")}
}

// FindByCorrelationID returns the movements of one originating document,
// oldest first.
func (r *MovementRepository) FindByCorrelationID(ctx context.Context, tenantID, correlationID string) ([]domain.MovementRecord, error) {
	return r.find(ctx, bson.M{
		"tenantId":      tenantID,
		"correlationId": correlationID,
	})
}

// FindByProduct returns a product's movements since the given time, oldest
// first.
func (r *MovementRepository) FindByProduct(ctx context.Context, tenantID, productID string, since time.Time) ([]domain.MovementRecord, error) {
	return r.find(ctx, bson.M{
		"tenantId":  tenantID,
		"productId": productID,
		"createdAt": bson.M{"$gte": since},
	})
}

// FindCommitsSince returns COMMIT movements in a warehouse since the given
// time, feeding consumption statistics.
func (r *MovementRepository) FindCommitsSince(ctx context.Context, tenantID, warehouseID string, since time.Time) ([]domain.MovementRecord, error) {
	return r.find(ctx, bson.M{
		"tenantId":    tenantID,
		"warehouseId": warehouseID,
		"type":        domain.MovementCommit,
		"createdAt":   bson.M{"$gte": since},
	})
}

func (r *MovementRepository) find(ctx context.Context, filter bson.M) ([]domain.MovementRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer cursor.Close(ctx)

	movements := make([]domain.MovementRecord, 0)
	for cursor.Next(ctx) {
		var movement domain.MovementRecord
		if err := cursor.Decode(&movement); err != nil {
			return nil, fmt.Errorf("failed to decode movement record: %w", err)
		}
		movements = append(movements, movement)
	}
	return movements, cursor.Err()
}
