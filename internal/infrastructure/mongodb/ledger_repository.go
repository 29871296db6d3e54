package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/inventory-ops-service/internal/domain"
)

// LedgerRepository persists stock cells, the movement log and reservations
// in MongoDB. A LedgerTxn is applied inside one multi-document transaction;
// the compare-and-swap on each cell's version is what makes concurrent
// writers safe.
type LedgerRepository struct {
	cells        *mongo.Collection
	movements    *mongo.Collection
	reservations *mongo.Collection
	db           *mongo.Database
}

// NewLedgerRepository creates the repository and ensures its indexes
func NewLedgerRepository(db *mongo.Database) *LedgerRepository {
	repo := &LedgerRepository{
		cells:        db.Collection("stock_cells"),
		movements:    db.Collection("movements"),
		reservations: db.Collection("reservations"),
		db:           db,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *LedgerRepository) ensureIndexes(ctx context.Context) {
	cellIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenantId", Value: 1},
				{Key: "warehouseId", Value: 1},
				{Key: "productId", Value: 1},
				{Key: "locationId", Value: 1},
				{Key: "batchId", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "warehouseId", Value: 1}, {Key: "locationId", Value: 1}}},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "warehouseId", Value: 1}, {Key: "productId", Value: 1}}},
	}
	r.cells.Indexes().CreateMany(ctx, cellIndexes)

	movementIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "movementId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "correlationId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "productId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "warehouseId", Value: 1}, {Key: "type", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	r.movements.Indexes().CreateMany(ctx, movementIndexes)

	reservationIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "reservationId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "correlationId", Value: 1}}},
	}
	r.reservations.Indexes().CreateMany(ctx, reservationIndexes)
}

func cellFilter(key domain.CellKey) bson.M {
	return bson.M{
		"tenantId":    key.TenantID,
		"warehouseId": key.WarehouseID,
		"productId":   key.ProductID,
		"locationId":  key.LocationID,
		"batchId":     key.BatchID,
	}
}

// FindCell returns one cell by key, nil when it does not exist
func (r *LedgerRepository) FindCell(ctx context.Context, key domain.CellKey) (*domain.StockCell, error) {
	var cell domain.StockCell
	err := r.cells.FindOne(ctx, cellFilter(key)).Decode(&cell)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find stock cell: %w", err)
	}
	return &cell, nil
}

// FindCellsByProduct returns all cells holding a product in a warehouse
func (r *LedgerRepository) FindCellsByProduct(ctx context.Context, tenantID, warehouseID, productID string) ([]*domain.StockCell, error) {
	return r.findCells(ctx, bson.M{
		"tenantId":    tenantID,
		"warehouseId": warehouseID,
		"productId":   productID,
	})
}

// FindCellsAtLocation returns a product's cells at one location
func (r *LedgerRepository) FindCellsAtLocation(ctx context.Context, tenantID, warehouseID, productID, locationID string) ([]*domain.StockCell, error) {
	return r.findCells(ctx, bson.M{
		"tenantId":    tenantID,
		"warehouseId": warehouseID,
		"productId":   productID,
		"locationId":  locationID,
	})
}

// ListCells scans cells narrowed by the filter, used for cycle count
// snapshots. Zones match by location code prefix.
func (r *LedgerRepository) ListCells(ctx context.Context, tenantID, warehouseID string, filter domain.CellFilter) ([]*domain.StockCell, error) {
	query := bson.M{
		"tenantId":    tenantID,
		"warehouseId": warehouseID,
	}
	if len(filter.Locations) > 0 {
		query["locationId"] = bson.M{"$in": filter.Locations}
	} else if len(filter.Zones) > 0 {
		patterns := make([]bson.M, 0, len(filter.Zones))
		for _, zone := range filter.Zones {
			patterns = append(patterns, bson.M{
				"locationId": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(zone) + "-"},
			})
		}
		query["$or"] = patterns
	}
	if len(filter.Products) > 0 {
		query["productId"] = bson.M{"$in": filter.Products}
	}
	return r.findCells(ctx, query)
}

func (r *LedgerRepository) findCells(ctx context.Context, filter bson.M) ([]*domain.StockCell, error) {
	cursor, err := r.cells.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock cells: %w", err)
	}
	defer cursor.Close(ctx)

	cells := make([]*domain.StockCell, 0)
	for cursor.Next(ctx) {
		var cell domain.StockCell
		if err := cursor.Decode(&cell); err != nil {
			return nil, fmt.Errorf("failed to decode stock cell: %w", err)
		}
		cells = append(cells, &cell)
	}
	return cells, cursor.Err()
}

// Apply commits one allocation operation: every cell write, the movement
// record and the reservation changes succeed or fail together. A version
// mismatch on any cell aborts the transaction with ErrVersionConflict.
func (r *LedgerRepository) Apply(ctx context.Context, txn domain.LedgerTxn) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		for _, write := range txn.Writes {
			if err := r.saveCell(sessCtx, write); err != nil {
				return nil, err
			}
		}
		if txn.Movement != nil {
			if _, err := r.movements.InsertOne(sessCtx, txn.Movement); err != nil {
				return nil, fmt.Errorf("failed to insert movement record: %w", err)
			}
		}
		for _, reservation := range txn.Reservations {
			filter := bson.M{"tenantId": reservation.TenantID, "reservationId": reservation.ReservationID}
			opts := options.Replace().SetUpsert(true)
			if _, err := r.reservations.ReplaceOne(sessCtx, filter, reservation, opts); err != nil {
				return nil, fmt.Errorf("failed to save reservation: %w", err)
			}
		}
		return nil, nil
	})
	return err
}

// saveCell inserts new cells and compare-and-swaps existing ones. The cell
// carries its pre-mutation version in ExpectedVersion; the stored version
// advances by one on success.
func (r *LedgerRepository) saveCell(ctx context.Context, write domain.CellWrite) error {
	cell := write.Cell
	cell.Version = write.ExpectedVersion + 1

	if write.ExpectedVersion == 0 {
		_, err := r.cells.InsertOne(ctx, cell)
		if err != nil {
			// A concurrent writer created the same cell first.
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrVersionConflict
			}
			return fmt.Errorf("failed to insert stock cell: %w", err)
		}
		return nil
	}

	filter := cellFilter(cell.Key())
	filter["version"] = write.ExpectedVersion
	result, err := r.cells.ReplaceOne(ctx, filter, cell)
	if err != nil {
		return fmt.Errorf("failed to update stock cell: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}
