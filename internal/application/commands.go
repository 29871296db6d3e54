package application

import "time"

// ReceiveStockCommand receives stock into a location, creating the cell
// when it does not exist yet.
type ReceiveStockCommand struct {
	TenantID      string
	WarehouseID   string
	ProductID     string
	ToLocation    string
	Quantity      int
	BatchID       string
	Expiry        *time.Time
	UOM           string
	Actor         string
	CorrelationID string
}

// MoveStockCommand transfers stock between two locations. When BatchID is
// empty the source batches are consumed in FEFO order.
type MoveStockCommand struct {
	TenantID      string
	WarehouseID   string
	ProductID     string
	FromLocation  string
	ToLocation    string
	Quantity      int
	BatchID       string
	Reason        string
	Actor         string
	CorrelationID string
}

// ReserveStockCommand claims available stock at a location. When BatchID
// is empty the claim splits across batches in FEFO order.
type ReserveStockCommand struct {
	TenantID      string
	WarehouseID   string
	ProductID     string
	LocationID    string
	Quantity      int
	BatchID       string
	Actor         string
	CorrelationID string
}

// CommitPickCommand converts a reservation into an outbound movement.
// ActualQty may be less than the reserved quantity, never more.
type CommitPickCommand struct {
	TenantID      string
	ReservationID string
	ActualQty     int
	Actor         string
	CorrelationID string
}

// ReleaseReservationCommand returns the unresolved remainder of a
// reservation to available stock.
type ReleaseReservationCommand struct {
	TenantID      string
	ReservationID string
	Actor         string
	CorrelationID string
}

// AdjustStockCommand applies a signed correction to a cell.
type AdjustStockCommand struct {
	TenantID      string
	WarehouseID   string
	ProductID     string
	LocationID    string
	Delta         int
	BatchID       string
	Reason        string
	Actor         string
	CorrelationID string
}

// PlanWaveCommand groups released orders into a wave, reserves their stock
// and generates the pick path.
type PlanWaveCommand struct {
	TenantID    string
	WarehouseID string
	PickerID    string
	OrderIDs    []string
}

// ReleaseWaveCommand makes a planned wave's tasks visible to the picker.
type ReleaseWaveCommand struct {
	TenantID string
	WaveID   string
}

// WaveLineResult is one picked line reported at wave execution.
type WaveLineResult struct {
	TaskID     string
	CountedQty int
}

// ExecuteWaveCommand reports picked quantities for wave tasks.
type ExecuteWaveCommand struct {
	TenantID string
	WaveID   string
	Lines    []WaveLineResult
	Actor    string
}

// CancelWaveCommand aborts a wave and releases its reservations.
type CancelWaveCommand struct {
	TenantID string
	WaveID   string
	Reason   string
	Actor    string
}

// EvaluateReplenishmentCommand runs the replenishment engine over all
// configured policies of a warehouse.
type EvaluateReplenishmentCommand struct {
	TenantID    string
	WarehouseID string
}

// SuggestionActionCommand approves, rejects or executes a replenishment
// suggestion.
type SuggestionActionCommand struct {
	TenantID     string
	SuggestionID string
	Actor        string
}

// SKUConsumption is the observed weekly consumption of one SKU over the
// slotting window.
type SKUConsumption struct {
	SKU       string
	WeeklyQty []int
}

// EvaluateSlottingCommand runs ABC/XYZ classification and placement
// scoring over the given consumption window.
type EvaluateSlottingCommand struct {
	TenantID    string
	WarehouseID string
	Consumption []SKUConsumption
}

// RecommendationActionCommand approves, rejects or executes a slotting
// recommendation.
type RecommendationActionCommand struct {
	TenantID         string
	RecommendationID string
	Actor            string
}

// CreateCycleCountCommand creates a counting task over the given scope,
// snapshotting theoretical quantities from the ledger.
type CreateCycleCountCommand struct {
	TenantID    string
	WarehouseID string
	Zones       []string
	Locations   []string
	Products    []string
}

// CountedLine is one physical count reported during task execution.
type CountedLine struct {
	LocationID string
	SKU        string
	BatchID    string
	Counted    int
}

// ExecuteCycleCountCommand records physical counts on a task.
type ExecuteCycleCountCommand struct {
	TenantID string
	TaskID   string
	Lines    []CountedLine
}

// ReviewCycleCountCommand closes a counted task, applying adjustments on
// approval.
type ReviewCycleCountCommand struct {
	TenantID string
	TaskID   string
	Approve  bool
	Actor    string
}

// UpsertPolicyCommand stores a replenishment policy for one SKU/location.
type UpsertPolicyCommand struct {
	TenantID    string
	WarehouseID string
	SKU         string
	LocationID  string
	Min         int
	Max         int
	SafetyStock int
	Strategy    string
}
