package domain

import (
	"context"
	"time"
)

// CellWrite is one cell mutation within a ledger transaction. An
// ExpectedVersion of zero means the cell is new and must be inserted.
type CellWrite struct {
	Cell            *StockCell
	ExpectedVersion int64
}

// LedgerTxn groups the cell writes, the movement record and any
// reservation changes of one allocation-engine operation. The repository
// applies all of it atomically or none of it; a version mismatch on any
// cell yields ErrVersionConflict. A FEFO reserve that splits across batch
// cells carries one reservation per consumed cell.
type LedgerTxn struct {
	Writes       []CellWrite
	Movement     *MovementRecord
	Reservations []*Reservation
}

// CellFilter narrows a ledger scan. Empty slices mean "no restriction";
// zones match by location code prefix.
type CellFilter struct {
	Zones     []string
	Locations []string
	Products  []string
}

// LedgerRepository is the authoritative store of stock cells. Finders
// return nil (no error) when nothing matches a single-cell lookup.
type LedgerRepository interface {
	FindCell(ctx context.Context, key CellKey) (*StockCell, error)
	FindCellsByProduct(ctx context.Context, tenantID, warehouseID, productID string) ([]*StockCell, error)
	FindCellsAtLocation(ctx context.Context, tenantID, warehouseID, productID, locationID string) ([]*StockCell, error)
	ListCells(ctx context.Context, tenantID, warehouseID string, filter CellFilter) ([]*StockCell, error)
	Apply(ctx context.Context, txn LedgerTxn) error
}

// MovementRepository reads the append-only movement log. Writes happen only
// through LedgerRepository.Apply.
type MovementRepository interface {
	FindByCorrelationID(ctx context.Context, tenantID, correlationID string) ([]MovementRecord, error)
	FindByProduct(ctx context.Context, tenantID, productID string, since time.Time) ([]MovementRecord, error)
	FindCommitsSince(ctx context.Context, tenantID, warehouseID string, since time.Time) ([]MovementRecord, error)
}

// ReservationRepository stores reservations taken by wave planning
type ReservationRepository interface {
	FindByReservationID(ctx context.Context, tenantID, reservationID string) (*Reservation, error)
	Save(ctx context.Context, reservation *Reservation) error
}

// WaveRepository stores wave aggregates
type WaveRepository interface {
	Save(ctx context.Context, wave *Wave) error
	FindByWaveID(ctx context.Context, tenantID, waveID string) (*Wave, error)
}

// SuggestionRepository stores replenishment suggestions
type SuggestionRepository interface {
	Save(ctx context.Context, suggestion *ReplenishmentSuggestion) error
	FindBySuggestionID(ctx context.Context, tenantID, suggestionID string) (*ReplenishmentSuggestion, error)
	FindByStatus(ctx context.Context, tenantID, warehouseID string, status SuggestionStatus) ([]*ReplenishmentSuggestion, error)
	FindOpenForLocation(ctx context.Context, tenantID, warehouseID, sku, locationID string) (*ReplenishmentSuggestion, error)
}

// RecommendationRepository stores slotting recommendations
type RecommendationRepository interface {
	Save(ctx context.Context, recommendation *SlottingRecommendation) error
	FindByRecommendationID(ctx context.Context, tenantID, recommendationID string) (*SlottingRecommendation, error)
	FindByStatus(ctx context.Context, tenantID, warehouseID string, status SuggestionStatus) ([]*SlottingRecommendation, error)
	FindOpenForSKU(ctx context.Context, tenantID, warehouseID, sku string) (*SlottingRecommendation, error)
}

// CycleCountRepository stores cycle count tasks
type CycleCountRepository interface {
	Save(ctx context.Context, task *CycleCountTask) error
	FindByTaskID(ctx context.Context, tenantID, taskID string) (*CycleCountTask, error)
}

// PolicyRepository stores replenishment policies
type PolicyRepository interface {
	ListPolicies(ctx context.Context, tenantID, warehouseID string) ([]ReplenishmentPolicy, error)
	SavePolicy(ctx context.Context, policy ReplenishmentPolicy) error
}

// LocationType distinguishes warehouse storage functions
type LocationType string

const (
	LocationTypePicking LocationType = "PICKING"
	LocationTypeBulk    LocationType = "BULK"
)

// LocationRecord is an entry of the warehouse location master
type LocationRecord struct {
	TenantID    string       `bson:"tenantId" json:"tenantId"`
	WarehouseID string       `bson:"warehouseId" json:"warehouseId"`
	LocationID  string       `bson:"locationId" json:"locationId"`
	Zone        string       `bson:"zone" json:"zone"`
	Type        LocationType `bson:"type" json:"type"`
}

// LocationRepository reads the location master
type LocationRepository interface {
	ListByType(ctx context.Context, tenantID, warehouseID string, locationType LocationType) ([]LocationRecord, error)
	Save(ctx context.Context, record LocationRecord) error
}

// ProductRepository reads product handling profiles for slotting
type ProductRepository interface {
	FindProfile(ctx context.Context, tenantID, sku string) (*ProductProfile, error)
	Save(ctx context.Context, profile ProductProfile) error
}

// OrderLine is one demand line of a released outbound order. Orders live
// outside the engine; the wave planner only consumes their lines.
type OrderLine struct {
	OrderID   string `json:"orderId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderService resolves order lines from the external order system
type OrderService interface {
	GetOrderLines(ctx context.Context, tenantID string, orderIDs []string) ([]OrderLine, error)
}
