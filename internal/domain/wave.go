package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrWaveEmpty          = errors.New("wave must contain at least one order")
	ErrWaveNotPlanned     = errors.New("wave has not been planned")
	ErrWaveNotReleased    = errors.New("wave has not been released")
	ErrWaveClosed         = errors.New("wave is already closed")
	ErrWaveHasCommits     = errors.New("wave has committed picks and cannot be cancelled")
	ErrTaskNotFound       = errors.New("pick task not found in wave")
	ErrTaskAlreadyHandled = errors.New("pick task has already been resolved")
)

// WaveStatus represents the status of a wave
type WaveStatus string

const (
	WaveStatusCreated   WaveStatus = "CREATED"
	WaveStatusPlanned   WaveStatus = "PLANNED"
	WaveStatusReleased  WaveStatus = "RELEASED"
	WaveStatusPicking   WaveStatus = "PICKING"
	WaveStatusDone      WaveStatus = "DONE"
	WaveStatusCancelled WaveStatus = "CANCELLED"
)

// PickTaskStatus represents the status of one pick-path stop
type PickTaskStatus string

const (
	PickTaskPending  PickTaskStatus = "PENDING"
	PickTaskPicked   PickTaskStatus = "PICKED"
	PickTaskShort    PickTaskStatus = "SHORT"
	PickTaskReleased PickTaskStatus = "RELEASED"
)

// NewWaveID creates a new unique wave identifier
func NewWaveID() string {
	timestamp := time.Now().UTC().Format("20060102150405")
	return fmt.Sprintf("WAVE-%s-%s", timestamp, uuid.New().String()[:8])
}

// PickStop is one sequenced stop of the generated pick path. Each stop
// carries the reservation taken for it at planning time.
type PickStop struct {
	Sequence      int            `bson:"sequence" json:"sequence"`
	TaskID        string         `bson:"taskId" json:"taskId"`
	OrderID       string         `bson:"orderId" json:"orderId"`
	ProductID     string         `bson:"productId" json:"productId"`
	LocationID    string         `bson:"locationId" json:"locationId"`
	BatchID       string         `bson:"batchId,omitempty" json:"batchId,omitempty"`
	Quantity      int            `bson:"quantity" json:"quantity"`
	ReservationID string         `bson:"reservationId" json:"reservationId"`
	Status        PickTaskStatus `bson:"status" json:"status"`
	PickedQty     *int           `bson:"pickedQty,omitempty" json:"pickedQty,omitempty"`
}

// Wave is the aggregate root for outbound picking. State machine:
// CREATED -> PLANNED -> RELEASED -> PICKING -> DONE, with CANCELLED
// reachable until the first commit.
type Wave struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	WaveID      string             `bson:"waveId" json:"waveId"`
	TenantID    string             `bson:"tenantId" json:"tenantId"`
	WarehouseID string             `bson:"warehouseId" json:"warehouseId"`
	PickerID    string             `bson:"pickerId" json:"pickerId"`
	OrderIDs    []string           `bson:"orderIds" json:"orderIds"`
	Status      WaveStatus         `bson:"status" json:"status"`
	Stops       []PickStop         `bson:"stops,omitempty" json:"stops,omitempty"`

	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	PlannedAt   *time.Time `bson:"plannedAt,omitempty" json:"plannedAt,omitempty"`
	ReleasedAt  *time.Time `bson:"releasedAt,omitempty" json:"releasedAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`

	DomainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewWave creates a wave in CREATED status
func NewWave(tenantID, warehouseID, pickerID string, orderIDs []string) (*Wave, error) {
	if len(orderIDs) == 0 {
		return nil, ErrWaveEmpty
	}
	// Deduplicate while keeping first occurrence; set semantics, insertion
	// order irrelevant downstream.
	seen := make(map[string]bool, len(orderIDs))
	unique := make([]string, 0, len(orderIDs))
	for _, id := range orderIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, ErrWaveEmpty
	}

	now := time.Now().UTC()
	return &Wave{
		WaveID:       NewWaveID(),
		TenantID:     tenantID,
		WarehouseID:  warehouseID,
		PickerID:     pickerID,
		OrderIDs:     unique,
		Status:       WaveStatusCreated,
		CreatedAt:    now,
		UpdatedAt:    now,
		DomainEvents: make([]DomainEvent, 0),
	}, nil
}

// MarkPlanned attaches the sequenced pick path; all stock for the stops is
// already reserved.
func (w *Wave) MarkPlanned(stops []PickStop) error {
	if w.Status != WaveStatusCreated {
		return ErrWaveClosed
	}
	if len(stops) == 0 {
		return ErrWaveEmpty
	}

	now := time.Now().UTC()
	w.Stops = stops
	w.Status = WaveStatusPlanned
	w.PlannedAt = &now
	w.UpdatedAt = now

	w.AddDomainEvent(&WavePlannedEvent{
		WaveID:    w.WaveID,
		OrderIDs:  w.OrderIDs,
		StopCount: len(stops),
		PlannedAt: now,
	})
	return nil
}

// Release makes the pick tasks visible to the picker
func (w *Wave) Release() error {
	if w.Status != WaveStatusPlanned {
		return ErrWaveNotPlanned
	}

	now := time.Now().UTC()
	w.Status = WaveStatusReleased
	w.ReleasedAt = &now
	w.UpdatedAt = now

	w.AddDomainEvent(&WaveReleasedEvent{
		WaveID:     w.WaveID,
		PickerID:   w.PickerID,
		ReleasedAt: now,
	})
	return nil
}

// FindStop returns the stop with the given task id
func (w *Wave) FindStop(taskID string) *PickStop {
	for i := range w.Stops {
		if w.Stops[i].TaskID == taskID {
			return &w.Stops[i]
		}
	}
	return nil
}

// RecordPick resolves one task with the actually picked quantity. The first
// pick moves the wave to PICKING; when every task is resolved the wave is
// DONE.
func (w *Wave) RecordPick(taskID string, pickedQty int) error {
	if w.Status != WaveStatusReleased && w.Status != WaveStatusPicking {
		return ErrWaveNotReleased
	}

	stop := w.FindStop(taskID)
	if stop == nil {
		return ErrTaskNotFound
	}
	if stop.Status != PickTaskPending {
		return ErrTaskAlreadyHandled
	}
	if pickedQty < 0 || pickedQty > stop.Quantity {
		return ErrInvalidQuantity
	}

	qty := pickedQty
	stop.PickedQty = &qty
	switch {
	case pickedQty == stop.Quantity:
		stop.Status = PickTaskPicked
	case pickedQty == 0:
		stop.Status = PickTaskReleased
	default:
		stop.Status = PickTaskShort
	}

	now := time.Now().UTC()
	if w.Status == WaveStatusReleased && pickedQty > 0 {
		w.Status = WaveStatusPicking
	}
	w.UpdatedAt = now

	if w.allStopsResolved() {
		w.Status = WaveStatusDone
		w.CompletedAt = &now
		w.AddDomainEvent(&WaveCompletedEvent{
			WaveID:      w.WaveID,
			CompletedAt: now,
			StopCount:   len(w.Stops),
		})
	}
	return nil
}

// HasCommits reports whether any pick has been committed
func (w *Wave) HasCommits() bool {
	for _, s := range w.Stops {
		if s.PickedQty != nil && *s.PickedQty > 0 {
			return true
		}
	}
	return false
}

// Cancel aborts the wave and frees it for reservation release by the
// caller. A wave with any committed pick must instead be driven through
// partial completion.
func (w *Wave) Cancel(reason string) error {
	if w.Status == WaveStatusDone || w.Status == WaveStatusCancelled {
		return ErrWaveClosed
	}
	if w.HasCommits() {
		return ErrWaveHasCommits
	}

	now := time.Now().UTC()
	w.Status = WaveStatusCancelled
	for i := range w.Stops {
		if w.Stops[i].Status == PickTaskPending {
			w.Stops[i].Status = PickTaskReleased
		}
	}
	w.UpdatedAt = now

	w.AddDomainEvent(&WaveCancelledEvent{
		WaveID:      w.WaveID,
		Reason:      reason,
		CancelledAt: now,
	})
	return nil
}

// OutstandingStops returns stops that still hold an unresolved reservation
func (w *Wave) OutstandingStops() []PickStop {
	out := make([]PickStop, 0)
	for _, s := range w.Stops {
		if s.Status == PickTaskPending {
			out = append(out, s)
		}
	}
	return out
}

func (w *Wave) allStopsResolved() bool {
	for _, s := range w.Stops {
		if s.Status == PickTaskPending {
			return false
		}
	}
	return true
}

// AddDomainEvent adds a domain event
func (w *Wave) AddDomainEvent(event DomainEvent) {
	w.DomainEvents = append(w.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (w *Wave) ClearDomainEvents() {
	w.DomainEvents = make([]DomainEvent, 0)
}
