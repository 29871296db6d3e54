package application

import "time"

// StockCellDTO is the API-facing view of one stock cell.
type StockCellDTO struct {
	ProductID    string     `json:"productId"`
	LocationID   string     `json:"locationId"`
	BatchID      string     `json:"batchId,omitempty"`
	OnHandQty    int        `json:"onHandQty"`
	ReservedQty  int        `json:"reservedQty"`
	AvailableQty int        `json:"availableQty"`
	DamagedQty   int        `json:"damagedQty"`
	UOM          string     `json:"uom"`
	Expiry       *time.Time `json:"expiry,omitempty"`
	ReceivedAt   time.Time  `json:"receivedAt"`
	Version      int64      `json:"version"`
}

// MovementDTO is the API-facing view of one movement record.
type MovementDTO struct {
	MovementID    string    `json:"movementId"`
	Type          string    `json:"type"`
	ProductID     string    `json:"productId"`
	FromLocation  string    `json:"fromLocation,omitempty"`
	ToLocation    string    `json:"toLocation,omitempty"`
	BatchID       string    `json:"batchId,omitempty"`
	Quantity      int       `json:"quantity"`
	Reason        string    `json:"reason,omitempty"`
	Actor         string    `json:"actor"`
	CorrelationID string    `json:"correlationId"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ReservationDTO is the API-facing view of one reservation.
type ReservationDTO struct {
	ReservationID string `json:"reservationId"`
	ProductID     string `json:"productId"`
	LocationID    string `json:"locationId"`
	BatchID       string `json:"batchId,omitempty"`
	Quantity      int    `json:"quantity"`
	CommittedQty  int    `json:"committedQty"`
	Status        string `json:"status"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// ReserveResultDTO is the outcome of a reserve call. A FEFO claim that
// spans batch cells yields one reservation per cell.
type ReserveResultDTO struct {
	Movement     *MovementDTO     `json:"movement"`
	Reservations []ReservationDTO `json:"reservations"`
}

// ReleaseResultDTO is the outcome of releasing a reservation. A release
// after a partial commit only returns the remainder; Movement is nil when
// nothing was left to release.
type ReleaseResultDTO struct {
	Reservation ReservationDTO `json:"reservation"`
	Movement    *MovementDTO   `json:"movement,omitempty"`
	ReleasedQty int            `json:"releasedQty"`
}

// PickStopDTO is one sequenced pick path stop.
type PickStopDTO struct {
	Sequence      int    `json:"sequence"`
	TaskID        string `json:"taskId"`
	OrderID       string `json:"orderId"`
	ProductID     string `json:"productId"`
	LocationID    string `json:"locationId"`
	BatchID       string `json:"batchId,omitempty"`
	Quantity      int    `json:"quantity"`
	ReservationID string `json:"reservationId"`
	Status        string `json:"status"`
	PickedQty     *int   `json:"pickedQty,omitempty"`
}

// WaveDTO is the API-facing view of a wave and its pick path.
type WaveDTO struct {
	WaveID      string        `json:"waveId"`
	WarehouseID string        `json:"warehouseId"`
	PickerID    string        `json:"pickerId"`
	OrderIDs    []string      `json:"orderIds"`
	Status      string        `json:"status"`
	Stops       []PickStopDTO `json:"stops,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	PlannedAt   *time.Time    `json:"plannedAt,omitempty"`
	ReleasedAt  *time.Time    `json:"releasedAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// TaskResultDTO is the per-task outcome of a wave execution. Short picks
// carry the released remainder explicitly.
type TaskResultDTO struct {
	TaskID       string `json:"taskId"`
	Status       string `json:"status"`
	CommittedQty int    `json:"committedQty"`
	ReleasedQty  int    `json:"releasedQty"`
	Error        string `json:"error,omitempty"`
}

// WaveExecutionDTO is the outcome of one executeWave call.
type WaveExecutionDTO struct {
	Wave    *WaveDTO        `json:"wave"`
	Results []TaskResultDTO `json:"results"`
}

// SuggestionDTO is the API-facing view of a replenishment suggestion.
type SuggestionDTO struct {
	SuggestionID        string     `json:"suggestionId"`
	SKU                 string     `json:"sku"`
	SourceLocation      string     `json:"sourceLocation"`
	DestinationLocation string     `json:"destinationLocation"`
	SourceBatchID       string     `json:"sourceBatchId,omitempty"`
	SuggestedQty        int        `json:"suggestedQty"`
	Status              string     `json:"status"`
	PolicyMin           int        `json:"policyMin"`
	PolicyMax           int        `json:"policyMax"`
	CreatedAt           time.Time  `json:"createdAt"`
	ExecutedAt          *time.Time `json:"executedAt,omitempty"`
}

// RecommendationDTO is the API-facing view of a slotting recommendation.
type RecommendationDTO struct {
	RecommendationID    string     `json:"recommendationId"`
	SKU                 string     `json:"sku"`
	CurrentLocation     string     `json:"currentLocation"`
	RecommendedLocation string     `json:"recommendedLocation"`
	Score               int        `json:"score"`
	CurrentScore        int        `json:"currentScore"`
	ABCClass            string     `json:"abcClass"`
	XYZClass            string     `json:"xyzClass"`
	Status              string     `json:"status"`
	CreatedAt           time.Time  `json:"createdAt"`
	ExecutedAt          *time.Time `json:"executedAt,omitempty"`
}

// CycleCountLineDTO is one line of a counting task.
type CycleCountLineDTO struct {
	LocationID  string `json:"locationId"`
	SKU         string `json:"sku"`
	BatchID     string `json:"batchId,omitempty"`
	Theoretical int    `json:"theoretical"`
	Counted     *int   `json:"counted,omitempty"`
}

// CycleCountDTO is the API-facing view of a counting task.
type CycleCountDTO struct {
	TaskID      string              `json:"taskId"`
	WarehouseID string              `json:"warehouseId"`
	Status      string              `json:"status"`
	Lines       []CycleCountLineDTO `json:"lines"`
	Approved    *bool               `json:"approved,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	CountedAt   *time.Time          `json:"countedAt,omitempty"`
	ReviewedAt  *time.Time          `json:"reviewedAt,omitempty"`
}

// CycleCountAdjustmentDTO is the outcome of one reconciliation delta on an
// approved review. A line that could not be adjusted, for example because
// the counted shortfall exceeds the unreserved quantity, carries the error
// code instead of a movement.
type CycleCountAdjustmentDTO struct {
	LocationID string       `json:"locationId"`
	SKU        string       `json:"sku"`
	BatchID    string       `json:"batchId,omitempty"`
	Delta      int          `json:"delta"`
	Applied    bool         `json:"applied"`
	ErrorCode  string       `json:"errorCode,omitempty"`
	Movement   *MovementDTO `json:"movement,omitempty"`
}

// CycleCountReviewDTO is the outcome of a review, reporting every non-zero
// delta that an approval attempted to reconcile.
type CycleCountReviewDTO struct {
	Task        *CycleCountDTO            `json:"task"`
	Adjustments []CycleCountAdjustmentDTO `json:"adjustments"`
}

// PolicyDTO is the API-facing view of a replenishment policy.
type PolicyDTO struct {
	SKU         string `json:"sku"`
	LocationID  string `json:"locationId"`
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	SafetyStock int    `json:"safetyStock"`
	Strategy    string `json:"strategy"`
}

// StockSummaryDTO aggregates a product's stock across locations.
type StockSummaryDTO struct {
	ProductID    string         `json:"productId"`
	OnHandQty    int            `json:"onHandQty"`
	ReservedQty  int            `json:"reservedQty"`
	AvailableQty int            `json:"availableQty"`
	Cells        []StockCellDTO `json:"cells"`
}
