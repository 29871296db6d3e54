package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrSuggestionRejected = errors.New("suggestion has been rejected")
	ErrSuggestionExecuted = errors.New("suggestion has already been executed")
)

// SuggestionStatus is shared by replenishment suggestions and slotting
// recommendations; both are terminal once EXECUTED or REJECTED.
type SuggestionStatus string

const (
	SuggestionStatusPending  SuggestionStatus = "PENDING"
	SuggestionStatusApproved SuggestionStatus = "APPROVED"
	SuggestionStatusExecuted SuggestionStatus = "EXECUTED"
	SuggestionStatusRejected SuggestionStatus = "REJECTED"
)

// ReplenishmentPolicy configures threshold-based top-up for one SKU at one
// picking location. A snapshot of the policy is frozen onto every
// suggestion it produces.
type ReplenishmentPolicy struct {
	TenantID    string `bson:"tenantId" json:"tenantId"`
	WarehouseID string `bson:"warehouseId" json:"warehouseId"`
	SKU         string `bson:"sku" json:"sku"`
	LocationID  string `bson:"locationId" json:"locationId"`
	Min         int    `bson:"min" json:"min"`
	Max         int    `bson:"max" json:"max"`
	SafetyStock int    `bson:"safetyStock" json:"safetyStock"`
	Strategy    string `bson:"strategy" json:"strategy"`
}

// Validate checks the policy thresholds are coherent
func (p ReplenishmentPolicy) Validate() error {
	if p.SKU == "" {
		return ErrMissingProduct
	}
	if p.LocationID == "" {
		return ErrMissingLocation
	}
	if p.Min < 0 || p.Max <= 0 || p.Max < p.Min {
		return fmt.Errorf("invalid policy thresholds: min=%d max=%d", p.Min, p.Max)
	}
	return nil
}

// NewSuggestionID creates a new unique replenishment suggestion identifier
func NewSuggestionID() string {
	timestamp := time.Now().UTC().Format("20060102150405")
	return fmt.Sprintf("RPL-%s-%s", timestamp, uuid.New().String()[:8])
}

// ReplenishmentSuggestion proposes a top-up movement from bulk storage into
// a picking location. Lifecycle: PENDING -> APPROVED -> EXECUTED/REJECTED.
type ReplenishmentSuggestion struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"-"`
	SuggestionID        string              `bson:"suggestionId" json:"suggestionId"`
	TenantID            string              `bson:"tenantId" json:"tenantId"`
	WarehouseID         string              `bson:"warehouseId" json:"warehouseId"`
	SKU                 string              `bson:"sku" json:"sku"`
	SourceLocation      string              `bson:"sourceLocation" json:"sourceLocation"`
	DestinationLocation string              `bson:"destinationLocation" json:"destinationLocation"`
	SourceBatchID       string              `bson:"sourceBatchId,omitempty" json:"sourceBatchId,omitempty"`
	SuggestedQty        int                 `bson:"suggestedQty" json:"suggestedQty"`
	Status              SuggestionStatus    `bson:"status" json:"status"`
	Policy              ReplenishmentPolicy `bson:"policy" json:"policy"`
	CreatedAt           time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time           `bson:"updatedAt" json:"updatedAt"`
	ExecutedAt          *time.Time          `bson:"executedAt,omitempty" json:"executedAt,omitempty"`

	DomainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewReplenishmentSuggestion creates a pending suggestion with the policy
// snapshot frozen in.
func NewReplenishmentSuggestion(policy ReplenishmentPolicy, source, sourceBatch string, qty int) (*ReplenishmentSuggestion, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	if source == "" {
		return nil, ErrMissingLocation
	}

	now := time.Now().UTC()
	s := &ReplenishmentSuggestion{
		SuggestionID:        NewSuggestionID(),
		TenantID:            policy.TenantID,
		WarehouseID:         policy.WarehouseID,
		SKU:                 policy.SKU,
		SourceLocation:      source,
		DestinationLocation: policy.LocationID,
		SourceBatchID:       sourceBatch,
		SuggestedQty:        qty,
		Status:              SuggestionStatusPending,
		Policy:              policy,
		CreatedAt:           now,
		UpdatedAt:           now,
		DomainEvents:        make([]DomainEvent, 0),
	}
	s.DomainEvents = append(s.DomainEvents, &SuggestionCreatedEvent{
		SuggestionID: s.SuggestionID,
		SKU:          s.SKU,
		Source:       source,
		Destination:  policy.LocationID,
		Quantity:     qty,
		CreatedAt:    now,
	})
	return s, nil
}

// Approve moves the suggestion to APPROVED. Re-approving an APPROVED
// suggestion is a no-op, not an error.
func (s *ReplenishmentSuggestion) Approve() error {
	switch s.Status {
	case SuggestionStatusApproved:
		return nil
	case SuggestionStatusPending:
		s.Status = SuggestionStatusApproved
		s.UpdatedAt = time.Now().UTC()
		return nil
	case SuggestionStatusRejected:
		return ErrSuggestionRejected
	default:
		return ErrSuggestionExecuted
	}
}

// Reject terminates the suggestion without movement. Rejecting twice is a
// no-op.
func (s *ReplenishmentSuggestion) Reject() error {
	switch s.Status {
	case SuggestionStatusRejected:
		return nil
	case SuggestionStatusPending, SuggestionStatusApproved:
		s.Status = SuggestionStatusRejected
		s.UpdatedAt = time.Now().UTC()
		return nil
	default:
		return ErrSuggestionExecuted
	}
}

// MarkExecuted transitions to the terminal EXECUTED state. Execution is
// allowed from PENDING (implicit approval) and APPROVED; the service treats
// an already-EXECUTED suggestion as an idempotent no-op so no duplicate
// movement is ever produced.
func (s *ReplenishmentSuggestion) MarkExecuted() error {
	switch s.Status {
	case SuggestionStatusPending, SuggestionStatusApproved:
		now := time.Now().UTC()
		s.Status = SuggestionStatusExecuted
		s.ExecutedAt = &now
		s.UpdatedAt = now
		s.DomainEvents = append(s.DomainEvents, &SuggestionExecutedEvent{
			SuggestionID: s.SuggestionID,
			SKU:          s.SKU,
			Quantity:     s.SuggestedQty,
			ExecutedAt:   now,
		})
		return nil
	case SuggestionStatusExecuted:
		return ErrSuggestionExecuted
	default:
		return ErrSuggestionRejected
	}
}

// ClearDomainEvents clears all domain events
func (s *ReplenishmentSuggestion) ClearDomainEvents() {
	s.DomainEvents = make([]DomainEvent, 0)
}
