package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/inventory-ops-service/internal/domain"
)

// WaveRepository stores wave aggregates
type WaveRepository struct {
	collection *mongo.Collection
}

// NewWaveRepository creates the repository and ensures its indexes
func NewWaveRepository(db *mongo.Database) *WaveRepository {
	repo := &WaveRepository{collection: db.Collection("waves")}
	repo.collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "waveId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "warehouseId", Value: 1}, {Key: "status", Value: 1}}},
	})
	return repo
}

// Save upserts a wave by its identifier
func (r *WaveRepository) Save(ctx context.Context, wave *domain.Wave) error {
	filter := bson.M{"tenantId": wave.TenantID, "waveId": wave.WaveID}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, wave, opts); err != nil {
		return fmt.Errorf("failed to save wave: %w", err)
	}
	return nil
}

// FindByWaveID returns one wave, nil when absent
func (r *WaveRepository) FindByWaveID(ctx context.Context, tenantID, waveID string) (*domain.Wave, error) {
	var wave domain.Wave
	err := r.collection.FindOne(ctx, bson.M{"tenantId": tenantID, "waveId": waveID}).Decode(&wave)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find wave: %w", err)
	}
	return &wave, nil
}
