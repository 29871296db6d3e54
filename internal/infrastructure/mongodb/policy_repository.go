package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/inventory-ops-service/internal/domain"
)

// PolicyRepository stores replenishment policies, keyed by SKU and
// destination location.
type PolicyRepository struct {
	collection *mongo.Collection
}

// NewPolicyRepository creates the repository and ensures its indexes
func NewPolicyRepository(db *mongo.Database) *PolicyRepository {
	repo := &PolicyRepository{collection: db.Collection("replenishment_policies")}
	repo.collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenantId", Value: 1},
				{Key: "warehouseId", Value: 1},
				{Key: "sku", Value: 1},
				{Key: "locationId", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	})
	return repo
}

// ListPolicies returns all policies of a warehouse
func (r *PolicyRepository) ListPolicies(ctx context.Context, tenantID, warehouseID string) ([]domain.ReplenishmentPolicy, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"tenantId": tenantID, "warehouseId": warehouseID})
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer cursor.Close(ctx)

	policies := make([]domain.ReplenishmentPolicy, 0)
	for cursor.Next(ctx) {
		var policy domain.ReplenishmentPolicy
		if err := cursor.Decode(&policy); err != nil {
			return nil, fmt.Errorf("failed to decode policy: %w", err)
		}
		policies = append(policies, policy)
	}
	return policies, cursor.Err()
}

// SavePolicy upserts a policy by SKU and location
func (r *PolicyRepository) SavePolicy(ctx context.Context, policy domain.ReplenishmentPolicy) error {
	filter := bson.M{
		"tenantId":    policy.TenantID,
		"warehouseId": policy.WarehouseID,
		"sku":         policy.SKU,
		"locationId":  policy.LocationID,
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, policy, opts); err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}
