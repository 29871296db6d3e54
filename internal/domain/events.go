package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// MovementAppliedEvent is published after every ledger mutation
type MovementAppliedEvent struct {
	MovementID    string       `json:"movementId"`
	Type          MovementType `json:"type"`
	ProductID     string       `json:"productId"`
	FromLocation  string       `json:"fromLocation,omitempty"`
	ToLocation    string       `json:"toLocation,omitempty"`
	Quantity      int          `json:"quantity"`
	CorrelationID string       `json:"correlationId"`
	AppliedAt     time.Time    `json:"appliedAt"`
}

func (e *MovementAppliedEvent) EventType() string     { return "wms.inventory-ops.movement-applied" }
func (e *MovementAppliedEvent) OccurredAt() time.Time { return e.AppliedAt }

// WavePlannedEvent is published when a wave's stock is reserved and its
// pick path generated
type WavePlannedEvent struct {
	WaveID    string    `json:"waveId"`
	OrderIDs  []string  `json:"orderIds"`
	StopCount int       `json:"stopCount"`
	PlannedAt time.Time `json:"plannedAt"`
}

func (e *WavePlannedEvent) EventType() string     { return "wms.inventory-ops.wave-planned" }
func (e *WavePlannedEvent) OccurredAt() time.Time { return e.PlannedAt }

// WaveReleasedEvent is published when pick tasks become visible to the picker
type WaveReleasedEvent struct {
	WaveID     string    `json:"waveId"`
	PickerID   string    `json:"pickerId"`
	ReleasedAt time.Time `json:"releasedAt"`
}

func (e *WaveReleasedEvent) EventType() string     { return "wms.inventory-ops.wave-released" }
func (e *WaveReleasedEvent) OccurredAt() time.Time { return e.ReleasedAt }

// WaveCompletedEvent is published when every pick task is resolved
type WaveCompletedEvent struct {
	WaveID      string    `json:"waveId"`
	StopCount   int       `json:"stopCount"`
	CompletedAt time.Time `json:"completedAt"`
}

func (e *WaveCompletedEvent) EventType() string     { return "wms.inventory-ops.wave-completed" }
func (e *WaveCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// WaveCancelledEvent is published when a wave is cancelled before any commit
type WaveCancelledEvent struct {
	WaveID      string    `json:"waveId"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelledAt"`
}

func (e *WaveCancelledEvent) EventType() string     { return "wms.inventory-ops.wave-cancelled" }
func (e *WaveCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }

// SuggestionCreatedEvent is published when replenishment evaluation emits a
// suggestion
type SuggestionCreatedEvent struct {
	SuggestionID string    `json:"suggestionId"`
	SKU          string    `json:"sku"`
	Source       string    `json:"source"`
	Destination  string    `json:"destination"`
	Quantity     int       `json:"quantity"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (e *SuggestionCreatedEvent) EventType() string     { return "wms.inventory-ops.suggestion-created" }
func (e *SuggestionCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// SuggestionExecutedEvent is published when a suggestion's movement is applied
type SuggestionExecutedEvent struct {
	SuggestionID string    `json:"suggestionId"`
	SKU          string    `json:"sku"`
	Quantity     int       `json:"quantity"`
	ExecutedAt   time.Time `json:"executedAt"`
}

func (e *SuggestionExecutedEvent) EventType() string     { return "wms.inventory-ops.suggestion-executed" }
func (e *SuggestionExecutedEvent) OccurredAt() time.Time { return e.ExecutedAt }

// RecommendationCreatedEvent is published when slotting evaluation emits a
// recommendation
type RecommendationCreatedEvent struct {
	RecommendationID string    `json:"recommendationId"`
	SKU              string    `json:"sku"`
	From             string    `json:"from"`
	To               string    `json:"to"`
	Score            int       `json:"score"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (e *RecommendationCreatedEvent) EventType() string {
	return "wms.inventory-ops.recommendation-created"
}
func (e *RecommendationCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// RecommendationExecutedEvent is published when a re-slotting move is applied
type RecommendationExecutedEvent struct {
	RecommendationID string    `json:"recommendationId"`
	SKU              string    `json:"sku"`
	ExecutedAt       time.Time `json:"executedAt"`
}

func (e *RecommendationExecutedEvent) EventType() string {
	return "wms.inventory-ops.recommendation-executed"
}
func (e *RecommendationExecutedEvent) OccurredAt() time.Time { return e.ExecutedAt }

// CycleCountReviewedEvent is published when a cycle count task is reviewed
type CycleCountReviewedEvent struct {
	TaskID     string    `json:"taskId"`
	Approved   bool      `json:"approved"`
	DeltaCount int       `json:"deltaCount"`
	ReviewedAt time.Time `json:"reviewedAt"`
}

func (e *CycleCountReviewedEvent) EventType() string     { return "wms.inventory-ops.cycle-count-reviewed" }
func (e *CycleCountReviewedEvent) OccurredAt() time.Time { return e.ReviewedAt }
