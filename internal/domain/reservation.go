package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrReservationNotActive  = errors.New("reservation is not active")
	ErrCommitExceedsReserved = errors.New("committed quantity exceeds reserved quantity")
)

// ReservationStatus represents the lifecycle of a reservation
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusCommitted ReservationStatus = "COMMITTED"
	ReservationStatusReleased  ReservationStatus = "RELEASED"
)

// NewReservationID creates a new unique reservation identifier
func NewReservationID() string {
	return fmt.Sprintf("RSV-%s", uuid.New().String()[:12])
}

// Reservation is a claim on one stock cell taken by wave planning (or a
// direct reserve call). It never moves physical inventory; commit and
// release resolve it. Reservation expiry is the caller's policy, not
// enforced here.
type Reservation struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ReservationID string             `bson:"reservationId" json:"reservationId"`
	TenantID      string             `bson:"tenantId" json:"tenantId"`
	WarehouseID   string             `bson:"warehouseId" json:"warehouseId"`
	ProductID     string             `bson:"productId" json:"productId"`
	LocationID    string             `bson:"locationId" json:"locationId"`
	BatchID       string             `bson:"batchId,omitempty" json:"batchId,omitempty"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	CommittedQty  int                `bson:"committedQty" json:"committedQty"`
	Status        ReservationStatus  `bson:"status" json:"status"`
	CorrelationID string             `bson:"correlationId" json:"correlationId"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewReservation creates an active reservation against a cell
func NewReservation(key CellKey, quantity int, correlationID string) (*Reservation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	now := time.Now().UTC()
	return &Reservation{
		ReservationID: NewReservationID(),
		TenantID:      key.TenantID,
		WarehouseID:   key.WarehouseID,
		ProductID:     key.ProductID,
		LocationID:    key.LocationID,
		BatchID:       key.BatchID,
		Quantity:      quantity,
		Status:        ReservationStatusActive,
		CorrelationID: correlationID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CellKey returns the key of the reserved cell
func (r *Reservation) CellKey() CellKey {
	return CellKey{
		TenantID:    r.TenantID,
		WarehouseID: r.WarehouseID,
		ProductID:   r.ProductID,
		LocationID:  r.LocationID,
		BatchID:     r.BatchID,
	}
}

// Remaining returns the still-reserved quantity
func (r *Reservation) Remaining() int {
	return r.Quantity - r.CommittedQty
}

// Commit records an actual picked quantity; it may be less than the
// reserved quantity (partial pick), never more. A full commit resolves the
// reservation.
func (r *Reservation) Commit(actualQty int) error {
	if r.Status != ReservationStatusActive {
		return ErrReservationNotActive
	}
	if actualQty <= 0 {
		return ErrInvalidQuantity
	}
	if actualQty > r.Remaining() {
		return ErrCommitExceedsReserved
	}
	r.CommittedQty += actualQty
	if r.Remaining() == 0 {
		r.Status = ReservationStatusCommitted
	}
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Release resolves the reservation without stock movement and returns the
// quantity that goes back to available. After a partial commit only the
// remainder is released.
func (r *Reservation) Release() (int, error) {
	if r.Status != ReservationStatusActive {
		return 0, ErrReservationNotActive
	}
	remainder := r.Remaining()
	if r.CommittedQty > 0 {
		r.Status = ReservationStatusCommitted
	} else {
		r.Status = ReservationStatusReleased
	}
	r.UpdatedAt = time.Now().UTC()
	return remainder, nil
}
