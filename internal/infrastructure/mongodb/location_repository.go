package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/inventory-ops-service/internal/domain"
)

// LocationRepository stores the warehouse location master
type LocationRepository struct {
	collection *mongo.Collection
}

// NewLocationRepository creates the repository and ensures its indexes
func NewLocationRepository(db *mongo.Database) *LocationRepository {
	repo := &LocationRepository{collection: db.Collection("locations")}
	repo.collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenantId", Value: 1},
				{Key: "warehouseId", Value: 1},
				{Key: "locationId", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "warehouseId", Value: 1}, {Key: "type", Value: 1}}},
	})
	return repo
}

// ListByType returns a warehouse's locations of one storage type
func (r *LocationRepository) ListByType(ctx context.Context, tenantID, warehouseID string, locationType domain.LocationType) ([]domain.LocationRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"tenantId":    tenantID,
		"warehouseId": warehouseID,
		"type":        locationType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]domain.LocationRecord, 0)
	for cursor.Next(ctx) {
		var record domain.LocationRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode location: %w", err)
		}
		records = append(records, record)
	}
	return records, cursor.Err()
}

// Save upserts a location record
func (r *LocationRepository) Save(ctx context.Context, record domain.LocationRecord) error {
	filter := bson.M{
		"tenantId":    record.TenantID,
		"warehouseId": record.WarehouseID,
		"locationId":  record.LocationID,
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, record, opts); err != nil {
		return fmt.Errorf("failed to save location: %w", err)
	}
	return nil
}
