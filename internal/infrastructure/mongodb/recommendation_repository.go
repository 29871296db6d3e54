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

// RecommendationRepository stores slotting recommendations
type RecommendationRepository struct {
	collection *mongo.Collection
}

// NewRecommendationRepository creates the repository and ensures its indexes
func NewRecommendationRepository(db *mongo.Database) *RecommendationRepository {
	repo := &RecommendationRepository{collection: db.Collection("slotting_recommendations")}
	repo.collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "recommendationId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "warehouseId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "warehouseId", Value: 1}, {Key: "sku", Value: 1}}},
	})
	return repo
}

// Save upserts a recommendation by its identifier
func (r *RecommendationRepository) Save(ctx context.Context, recommendation *domain.SlottingRecommendation) error {
	filter := bson.M{"tenantId": recommendation.TenantID, "recommendationId": recommendation.RecommendationID}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, recommendation, opts); err != nil {
		return fmt.Errorf("failed to save recommendation: %w", err)
	}
	return nil
}

// FindByRecommendationID returns one recommendation, nil when absent
func (r *RecommendationRepository) FindByRecommendationID(ctx context.Context, tenantID, recommendationID string) (*domain.SlottingRecommendation, error) {
	var recommendation domain.SlottingRecommendation
	err := r.collection.FindOne(ctx, bson.M{"tenantId": tenantID, "recommendationId": recommendationID}).Decode(&recommendation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find recommendation: %w", err)
	}
	return &recommendation, nil
}

// FindByStatus returns a warehouse's recommendations in one status, newest
// first
func (r *RecommendationRepository) FindByStatus(ctx context.Context, tenantID, warehouseID string, status domain.SuggestionStatus) ([]*domain.SlottingRecommendation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{
		"tenantId":    tenantID,
		"warehouseId": warehouseID,
		"status":      status,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer cursor.Close(ctx)

	recommendations := make([]*domain.SlottingRecommendation, 0)
	for cursor.Next(ctx) {
		var recommendation domain.SlottingRecommendation
		if err := cursor.Decode(&recommendation); err != nil {
			return nil, fmt.Errorf("failed to decode recommendation: %w", err)
		}
		recommendations = append(recommendations, &recommendation)
	}
	return recommendations, cursor.Err()
}

// FindOpenForSKU returns a pending or approved recommendation for the SKU,
// nil when none exists.
func (r *RecommendationRepository) FindOpenForSKU(ctx context.Context, tenantID, warehouseID, sku string) (*domain.SlottingRecommendation, error) {
	var recommendation domain.SlottingRecommendation
	err := r.collection.FindOne(ctx, bson.M{
		"tenantId":    tenantID,
		"warehouseId": warehouseID,
		"sku":         sku,
		"status":      bson.M{"$in": openStatuses},
	}).Decode(&recommendation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open recommendation: %w", err)
	}
	return &recommendation, nil
}
