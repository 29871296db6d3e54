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

// openStatuses are the non-terminal suggestion states
var openStatuses = []domain.SuggestionStatus{
	domain.SuggestionStatusPending,
	domain.SuggestionStatusApproved,
}

// SuggestionRepository stores replenishment suggestions
type SuggestionRepository struct {
	collection *mongo.Collection
}

// NewSuggestionRepository creates the repository and ensures its indexes
func NewSuggestionRepository(db *mongo.Database) *SuggestionRepository {
	repo := &SuggestionRepository{collection: db.Collection("replenishment_suggestions")}
	repo.collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "suggestionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "warehouseId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "warehouseId", Value: 1}, {Key: "sku", Value: 1}, {Key: "destinationLocation", Value: 1}}},
	})
	return repo
}

// Save upserts a suggestion by its identifier
func (r *SuggestionRepository) Save(ctx context.Context, suggestion *domain.ReplenishmentSuggestion) error {
	filter := bson.M{"tenantId": suggestion.TenantID, "suggestionId": suggestion.SuggestionID}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, suggestion, opts); err != nil {
		return fmt.Errorf("failed to save suggestion: %w", err)
	}
	return nil
}

// FindBySuggestionID returns one suggestion, nil when absent
func (r *SuggestionRepository) FindBySuggestionID(ctx context.Context, tenantID, suggestionID string) (*domain.ReplenishmentSuggestion, error) {
	var suggestion domain.ReplenishmentSuggestion
	err := r.collection.FindOne(ctx, bson.M{"tenantId": tenantID, "suggestionId": suggestionID}).Decode(&suggestion)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find suggestion: %w", err)
	}
	return &suggestion, nil
}

// FindByStatus returns a warehouse's suggestions in one status, newest first
func (r *SuggestionRepository) FindByStatus(ctx context.Context, tenantID, warehouseID string, status domain.SuggestionStatus) ([]*domain.ReplenishmentSuggestion, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{
		"tenantId":    tenantID,
		"warehouseId": warehouseID,
		"status":      status,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer cursor.Close(ctx)

	suggestions := make([]*domain.ReplenishmentSuggestion, 0)
	for cursor.Next(ctx) {
		var suggestion domain.ReplenishmentSuggestion
		if err := cursor.Decode(&suggestion); err != nil {
			return nil, fmt.Errorf("failed to decode suggestion: %w", err)
		}
		suggestions = append(suggestions, &suggestion)
	}
	return suggestions, cursor.Err()
}

// FindOpenForLocation returns a pending or approved suggestion targeting
// the given SKU and destination, nil when none exists.
func (r *SuggestionRepository) FindOpenForLocation(ctx context.Context, tenantID, warehouseID, sku, locationID string) (*domain.ReplenishmentSuggestion, error) {
	var suggestion domain.ReplenishmentSuggestion
	err := r.collection.FindOne(ctx, bson.M{
		"tenantId":            tenantID,
		"warehouseId":         warehouseID,
		"sku":                 sku,
		"destinationLocation": locationID,
		"status":              bson.M{"$in": openStatuses},
	}).Decode(&suggestion)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open suggestion: %w", err)
	}
	return &suggestion, nil
}
