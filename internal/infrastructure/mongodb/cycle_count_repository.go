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

// CycleCountRepository stores counting tasks
type CycleCountRepository struct {
	collection *mongo.Collection
}

// NewCycleCountRepository creates the repository and ensures its indexes
func NewCycleCountRepository(db *mongo.Database) *CycleCountRepository {
	repo := &CycleCountRepository{collection: db.Collection("cycle_counts")}
	repo.collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "taskId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "warehouseId", Value: 1}, {Key: "status", Value: 1}}},
	})
	return repo
}

// Save upserts a task by its identifier
func (r *CycleCountRepository) Save(ctx context.Context, task *domain.CycleCountTask) error {
	filter := bson.M{"tenantId": task.TenantID, "taskId": task.TaskID}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, task, opts); err != nil {
		return fmt.Errorf("failed to save cycle count task: %w", err)
	}
	return nil
}

// FindByTaskID returns one task, nil when absent
func (r *CycleCountRepository) FindByTaskID(ctx context.Context, tenantID, taskID string) (*domain.CycleCountTask, error) {
	var task domain.CycleCountTask
	err := r.collection.FindOne(ctx, bson.M{"tenantId": tenantID, "taskId": taskID}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find cycle count task: %w", err)
	}
	return &task, nil
}
