package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MovementType distinguishes the audit semantics of a ledger mutation.
// Adjustments always use ADJUST_INC/ADJUST_DEC, never another type.
type MovementType string

const (
	MovementReceive          MovementType = "RECEIVE"
	MovementInternalTransfer MovementType = "INTERNAL_TRANSFER"
	MovementReserve          MovementType = "RESERVE"
	MovementCommit           MovementType = "COMMIT"
	MovementRelease          MovementType = "RELEASE"
	MovementAdjustInc        MovementType = "ADJUST_INC"
	MovementAdjustDec        MovementType = "ADJUST_DEC"
)

// IsValid reports whether the movement type is one of the known types
func (t MovementType) IsValid() bool {
	switch t {
	case MovementReceive, MovementInternalTransfer, MovementReserve,
		MovementCommit, MovementRelease, MovementAdjustInc, MovementAdjustDec:
		return true
	}
	return false
}

// NewMovementID creates a new unique movement identifier
func NewMovementID() string {
	timestamp := time.Now().UTC().Format("20060102150405")
	return fmt.Sprintf("MV-%s-%s", timestamp, uuid.New().String()[:8])
}

// MovementRecord is one immutable entry in the append-only movement log.
// It is created exclusively by the allocation engine and never updated or
// deleted; correlationId plus timestamp ordering is the traceability spine.
type MovementRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	MovementID    string             `bson:"movementId" json:"movementId"`
	TenantID      string             `bson:"tenantId" json:"tenantId"`
	WarehouseID   string             `bson:"warehouseId" json:"warehouseId"`
	Type          MovementType       `bson:"type" json:"type"`
	ProductID     string             `bson:"productId" json:"productId"`
	FromLocation  string             `bson:"fromLocation,omitempty" json:"fromLocation,omitempty"`
	ToLocation    string             `bson:"toLocation,omitempty" json:"toLocation,omitempty"`
	BatchID       string             `bson:"batchId,omitempty" json:"batchId,omitempty"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	Reason        string             `bson:"reason,omitempty" json:"reason,omitempty"`
	Actor         string             `bson:"actor" json:"actor"`
	CorrelationID string             `bson:"correlationId" json:"correlationId"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// NewMovementRecord creates a validated movement record
func NewMovementRecord(tenantID, warehouseID string, movementType MovementType, productID string, quantity int) (*MovementRecord, error) {
	if !movementType.IsValid() {
		return nil, fmt.Errorf("invalid movement type %q", movementType)
	}
	if productID == "" {
		return nil, ErrMissingProduct
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	return &MovementRecord{
		MovementID:  NewMovementID(),
		TenantID:    tenantID,
		WarehouseID: warehouseID,
		Type:        movementType,
		ProductID:   productID,
		Quantity:    quantity,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// WithLocations sets the source/destination locations
func (m *MovementRecord) WithLocations(from, to string) *MovementRecord {
	m.FromLocation = from
	m.ToLocation = to
	return m
}

// WithBatch sets the batch identifier
func (m *MovementRecord) WithBatch(batchID string) *MovementRecord {
	m.BatchID = batchID
	return m
}

// WithCorrelation links the record to its originating business document
func (m *MovementRecord) WithCorrelation(correlationID string) *MovementRecord {
	m.CorrelationID = correlationID
	return m
}

// WithActor sets who triggered the movement
func (m *MovementRecord) WithActor(actor string) *MovementRecord {
	m.Actor = actor
	return m
}

// WithReason sets the business reason
func (m *MovementRecord) WithReason(reason string) *MovementRecord {
	m.Reason = reason
	return m
}
