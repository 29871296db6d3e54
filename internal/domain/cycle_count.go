package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrCycleCountEmpty    = errors.New("cycle count scope matched no stock")
	ErrCycleCountReviewed = errors.New("cycle count has already been reviewed")
	ErrCycleCountNotReady = errors.New("cycle count has not been counted yet")
	ErrCountLineNotFound  = errors.New("count line not found in task")
)

// CycleCountStatus represents the task lifecycle
type CycleCountStatus string

const (
	CycleCountAssigned CycleCountStatus = "ASSIGNED"
	CycleCountCounted  CycleCountStatus = "COUNTED"
	CycleCountReviewed CycleCountStatus = "REVIEWED"
)

// CycleCountScope narrows which stock a task covers
type CycleCountScope struct {
	WarehouseID string   `bson:"warehouseId" json:"warehouseId"`
	Zones       []string `bson:"zones,omitempty" json:"zones,omitempty"`
	Locations   []string `bson:"locations,omitempty" json:"locations,omitempty"`
	Products    []string `bson:"products,omitempty" json:"products,omitempty"`
}

// CycleCountLine is one counted position. Theoretical is snapshotted from
// the ledger at task creation, deliberately not re-read at review time:
// discrepancies reflect drift since creation, not concurrent activity
// during counting. Counted stays nil until the counter records a value.
type CycleCountLine struct {
	LocationID  string `bson:"locationId" json:"locationId"`
	SKU         string `bson:"sku" json:"sku"`
	BatchID     string `bson:"batchId,omitempty" json:"batchId,omitempty"`
	Theoretical int    `bson:"theoretical" json:"theoretical"`
	Counted     *int   `bson:"counted,omitempty" json:"counted,omitempty"`
}

// LineDelta is a non-zero difference found at review
type LineDelta struct {
	LocationID string
	SKU        string
	BatchID    string
	Delta      int
}

// NewCycleCountID creates a new unique cycle count task identifier
func NewCycleCountID() string {
	timestamp := time.Now().UTC().Format("20060102150405")
	return fmt.Sprintf("CC-%s-%s", timestamp, uuid.New().String()[:8])
}

// CycleCountTask reconciles physical counts against the ledger snapshot.
// ASSIGNED -> COUNTED -> REVIEWED; only review (with approval) mutates the
// ledger, through the allocation engine.
type CycleCountTask struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	TaskID      string             `bson:"taskId" json:"taskId"`
	TenantID    string             `bson:"tenantId" json:"tenantId"`
	WarehouseID string             `bson:"warehouseId" json:"warehouseId"`
	Status      CycleCountStatus   `bson:"status" json:"status"`
	Scope       CycleCountScope    `bson:"scope" json:"scope"`
	Lines       []CycleCountLine   `bson:"lines" json:"lines"`
	Approved    *bool              `bson:"approved,omitempty" json:"approved,omitempty"`

	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
	CountedAt  *time.Time `bson:"countedAt,omitempty" json:"countedAt,omitempty"`
	ReviewedAt *time.Time `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	UpdatedAt  time.Time  `bson:"updatedAt" json:"updatedAt"`

	DomainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewCycleCountTask creates an assigned task with theoretical snapshots
func NewCycleCountTask(tenantID string, scope CycleCountScope, lines []CycleCountLine) (*CycleCountTask, error) {
	if len(lines) == 0 {
		return nil, ErrCycleCountEmpty
	}
	now := time.Now().UTC()
	return &CycleCountTask{
		TaskID:       NewCycleCountID(),
		TenantID:     tenantID,
		WarehouseID:  scope.WarehouseID,
		Status:       CycleCountAssigned,
		Scope:        scope,
		Lines:        lines,
		CreatedAt:    now,
		UpdatedAt:    now,
		DomainEvents: make([]DomainEvent, 0),
	}, nil
}

// RecordCount stores a physical count for one line. Counting never touches
// the ledger.
func (t *CycleCountTask) RecordCount(locationID, sku, batchID string, counted int) error {
	if t.Status == CycleCountReviewed {
		return ErrCycleCountReviewed
	}
	if counted < 0 {
		return ErrInvalidQuantity
	}
	for i := range t.Lines {
		l := &t.Lines[i]
		if l.LocationID == locationID && l.SKU == sku && l.BatchID == batchID {
			qty := counted
			l.Counted = &qty
			t.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrCountLineNotFound
}

// FinishCounting moves the task to COUNTED once the counter is done; lines
// left uncounted stay nil and are excluded from adjustment at review.
func (t *CycleCountTask) FinishCounting() error {
	if t.Status == CycleCountReviewed {
		return ErrCycleCountReviewed
	}
	now := time.Now().UTC()
	t.Status = CycleCountCounted
	t.CountedAt = &now
	t.UpdatedAt = now
	return nil
}

// Deltas returns the non-zero counted-vs-theoretical differences. A line
// with counted absent is "not counted", never assumed zero.
func (t *CycleCountTask) Deltas() []LineDelta {
	deltas := make([]LineDelta, 0)
	for _, l := range t.Lines {
		if l.Counted == nil {
			continue
		}
		d := *l.Counted - l.Theoretical
		if d == 0 {
			continue
		}
		deltas = append(deltas, LineDelta{
			LocationID: l.LocationID,
			SKU:        l.SKU,
			BatchID:    l.BatchID,
			Delta:      d,
		})
	}
	return deltas
}

// Review closes the task. On rejection the differences stay recorded for
// audit; the caller applies adjustments only on approval.
func (t *CycleCountTask) Review(approve bool) error {
	if t.Status == CycleCountReviewed {
		return ErrCycleCountReviewed
	}
	if t.Status != CycleCountCounted {
		return ErrCycleCountNotReady
	}

	now := time.Now().UTC()
	t.Status = CycleCountReviewed
	t.Approved = &approve
	t.ReviewedAt = &now
	t.UpdatedAt = now

	t.DomainEvents = append(t.DomainEvents, &CycleCountReviewedEvent{
		TaskID:     t.TaskID,
		Approved:   approve,
		DeltaCount: len(t.Deltas()),
		ReviewedAt: now,
	})
	return nil
}

// ClearDomainEvents clears all domain events
func (t *CycleCountTask) ClearDomainEvents() {
	t.DomainEvents = make([]DomainEvent, 0)
}
