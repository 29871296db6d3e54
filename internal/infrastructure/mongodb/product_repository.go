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

// ProductRepository stores product handling profiles
type ProductRepository struct {
	collection *mongo.Collection
}

// NewProductRepository creates the repository and ensures its indexes
func NewProductRepository(db *mongo.Database) *ProductRepository {
	repo := &ProductRepository{collection: db.Collection("product_profiles")}
	repo.collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "sku", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return repo
}

// FindProfile returns a product's handling profile, nil when absent
func (r *ProductRepository) FindProfile(ctx context.Context, tenantID, sku string) (*domain.ProductProfile, error) {
	var profile domain.ProductProfile
	err := r.collection.FindOne(ctx, bson.M{"tenantId": tenantID, "sku": sku}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product profile: %w", err)
	}
	return &profile, nil
}

// Save upserts a product profile
func (r *ProductRepository) Save(ctx context.Context, profile domain.ProductProfile) error {
	filter := bson.M{"tenantId": profile.TenantID, "sku": profile.SKU}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, profile, opts); err != nil {
		return fmt.Errorf("failed to save product profile: %w", err)
	}
	return nil
}
