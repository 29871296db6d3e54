package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ABCClass ranks SKUs by consumption volume over the classification window
type ABCClass string

const (
	ABCClassA ABCClass = "A"
	ABCClassB ABCClass = "B"
	ABCClassC ABCClass = "C"
)

// XYZClass ranks SKUs by consumption variability over the same window
type XYZClass string

const (
	XYZClassX XYZClass = "X"
	XYZClassY XYZClass = "Y"
	XYZClassZ XYZClass = "Z"
)

// Cumulative volume share boundaries for ABC tertiles: top 20% of volume is
// A, the next 30% is B, the remainder C.
const (
	abcClassABoundary = 0.20
	abcClassBBoundary = 0.50
)

// Coefficient-of-variation boundaries for XYZ classes.
const (
	xyzClassXBoundary = 0.5
	xyzClassYBoundary = 1.0
)

// ConsumptionStats holds committed pick volumes for one SKU, bucketed per
// week of the classification window.
type ConsumptionStats struct {
	SKU       string
	WeeklyQty []int
}

// Total returns the total consumed quantity over the window
func (s ConsumptionStats) Total() int {
	total := 0
	for _, q := range s.WeeklyQty {
		total += q
	}
	return total
}

// CoefficientOfVariation returns stddev/mean of the weekly quantities. A
// SKU with no consumption reports +Inf so it lands in class Z.
func (s ConsumptionStats) CoefficientOfVariation() float64 {
	if len(s.WeeklyQty) == 0 {
		return math.Inf(1)
	}
	mean := float64(s.Total()) / float64(len(s.WeeklyQty))
	if mean == 0 {
		return math.Inf(1)
	}
	var sumSq float64
	for _, q := range s.WeeklyQty {
		d := float64(q) - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq/float64(len(s.WeeklyQty))) / mean
}

// SKUClassification is the ABC/XYZ result for one SKU
type SKUClassification struct {
	SKU    string   `bson:"sku" json:"sku"`
	ABC    ABCClass `bson:"abcClass" json:"abcClass"`
	XYZ    XYZClass `bson:"xyzClass" json:"xyzClass"`
	Volume int      `bson:"volume" json:"volume"`
	CV     float64  `bson:"cv" json:"cv"`
}

// ClassifySKUs computes ABC by cumulative volume share and XYZ by
// coefficient of variation. SKUs with zero volume are C/Z.
func ClassifySKUs(stats []ConsumptionStats) []SKUClassification {
	sorted := make([]ConsumptionStats, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := sorted[i].Total(), sorted[j].Total()
		if ti != tj {
			return ti > tj
		}
		return sorted[i].SKU < sorted[j].SKU
	})

	grandTotal := 0
	for _, s := range sorted {
		grandTotal += s.Total()
	}

	result := make([]SKUClassification, 0, len(sorted))
	cumulative := 0
	for _, s := range sorted {
		volume := s.Total()
		cumulative += volume

		abc := ABCClassC
		if grandTotal > 0 && volume > 0 {
			share := float64(cumulative) / float64(grandTotal)
			switch {
			case share <= abcClassABoundary:
				abc = ABCClassA
			case share <= abcClassBBoundary:
				abc = ABCClassB
			}
			// The highest-volume SKU is always A even when it alone
			// exceeds the boundary.
			if len(result) == 0 {
				abc = ABCClassA
			}
		}

		cv := s.CoefficientOfVariation()
		xyz := XYZClassZ
		switch {
		case cv <= xyzClassXBoundary:
			xyz = XYZClassX
		case cv <= xyzClassYBoundary:
			xyz = XYZClassY
		}

		result = append(result, SKUClassification{
			SKU:    s.SKU,
			ABC:    abc,
			XYZ:    xyz,
			Volume: volume,
			CV:     cv,
		})
	}
	return result
}

// ProductProfile carries the handling attributes that constrain placement
type ProductProfile struct {
	TenantID string `bson:"tenantId" json:"tenantId"`
	SKU      string `bson:"sku" json:"sku"`
	Fragile  bool   `bson:"fragile" json:"fragile"`
	Hazmat   bool   `bson:"hazmat" json:"hazmat"`
}

// Placement penalties sourced from product-class compatibility rules.
const (
	fragileHighLevelPenalty = 25
	hazmatZonePenalty       = 60
	hazmatZone              = "H"
	fragileMaxLevel         = 2
)

// turnoverWeight maps the ABC class to how much golden-zone fit matters
func turnoverWeight(abc ABCClass) float64 {
	switch abc {
	case ABCClassA:
		return 1.0
	case ABCClassB:
		return 0.7
	default:
		return 0.4
	}
}

// ScorePlacement rates a (SKU, location) assignment 0-100: golden-zone fit
// weighted by turnover class, minus product-class compatibility penalties.
func ScorePlacement(class SKUClassification, loc Location, profile ProductProfile) int {
	score := turnoverWeight(class.ABC) * loc.GoldenZoneFit() * 100

	if profile.Fragile && loc.Level() > fragileMaxLevel {
		score -= fragileHighLevelPenalty
	}
	if profile.Hazmat && loc.Zone() != hazmatZone {
		score -= hazmatZonePenalty
	}
	if !profile.Hazmat && loc.Zone() == hazmatZone {
		score -= hazmatZonePenalty
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}

// NewRecommendationID creates a new unique slotting recommendation identifier
func NewRecommendationID() string {
	timestamp := time.Now().UTC().Format("20060102150405")
	return fmt.Sprintf("SLT-%s-%s", timestamp, uuid.New().String()[:8])
}

// SlottingRecommendation proposes moving a SKU to a better-fitting picking
// location. Lifecycle mirrors ReplenishmentSuggestion.
type SlottingRecommendation struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	RecommendationID    string             `bson:"recommendationId" json:"recommendationId"`
	TenantID            string             `bson:"tenantId" json:"tenantId"`
	WarehouseID         string             `bson:"warehouseId" json:"warehouseId"`
	SKU                 string             `bson:"sku" json:"sku"`
	CurrentLocation     string             `bson:"currentLocation" json:"currentLocation"`
	RecommendedLocation string             `bson:"recommendedLocation" json:"recommendedLocation"`
	Score               int                `bson:"score" json:"score"`
	CurrentScore        int                `bson:"currentScore" json:"currentScore"`
	ABCClass            ABCClass           `bson:"abcClass" json:"abcClass"`
	XYZClass            XYZClass           `bson:"xyzClass" json:"xyzClass"`
	Status              SuggestionStatus   `bson:"status" json:"status"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
	ExecutedAt          *time.Time         `bson:"executedAt,omitempty" json:"executedAt,omitempty"`

	DomainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewSlottingRecommendation creates a pending recommendation
func NewSlottingRecommendation(tenantID, warehouseID string, class SKUClassification, current, recommended string, score, currentScore int) (*SlottingRecommendation, error) {
	if class.SKU == "" {
		return nil, ErrMissingProduct
	}
	if current == "" || recommended == "" {
		return nil, ErrMissingLocation
	}

	now := time.Now().UTC()
	r := &SlottingRecommendation{
		RecommendationID:    NewRecommendationID(),
		TenantID:            tenantID,
		WarehouseID:         warehouseID,
		SKU:                 class.SKU,
		CurrentLocation:     current,
		RecommendedLocation: recommended,
		Score:               score,
		CurrentScore:        currentScore,
		ABCClass:            class.ABC,
		XYZClass:            class.XYZ,
		Status:              SuggestionStatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
		DomainEvents:        make([]DomainEvent, 0),
	}
	r.DomainEvents = append(r.DomainEvents, &RecommendationCreatedEvent{
		RecommendationID: r.RecommendationID,
		SKU:              r.SKU,
		From:             current,
		To:               recommended,
		Score:            score,
		CreatedAt:        now,
	})
	return r, nil
}

// Approve mirrors ReplenishmentSuggestion.Approve
func (r *SlottingRecommendation) Approve() error {
	switch r.Status {
	case SuggestionStatusApproved:
		return nil
	case SuggestionStatusPending:
		r.Status = SuggestionStatusApproved
		r.UpdatedAt = time.Now().UTC()
		return nil
	case SuggestionStatusRejected:
		return ErrSuggestionRejected
	default:
		return ErrSuggestionExecuted
	}
}

// Reject mirrors ReplenishmentSuggestion.Reject
func (r *SlottingRecommendation) Reject() error {
	switch r.Status {
	case SuggestionStatusRejected:
		return nil
	case SuggestionStatusPending, SuggestionStatusApproved:
		r.Status = SuggestionStatusRejected
		r.UpdatedAt = time.Now().UTC()
		return nil
	default:
		return ErrSuggestionExecuted
	}
}

// MarkExecuted mirrors ReplenishmentSuggestion.MarkExecuted
func (r *SlottingRecommendation) MarkExecuted() error {
	switch r.Status {
	case SuggestionStatusPending, SuggestionStatusApproved:
		now := time.Now().UTC()
		r.Status = SuggestionStatusExecuted
		r.ExecutedAt = &now
		r.UpdatedAt = now
		r.DomainEvents = append(r.DomainEvents, &RecommendationExecutedEvent{
			RecommendationID: r.RecommendationID,
			SKU:              r.SKU,
			ExecutedAt:       now,
		})
		return nil
	case SuggestionStatusExecuted:
		return ErrSuggestionExecuted
	default:
		return ErrSuggestionRejected
	}
}

// ClearDomainEvents clears all domain events
func (r *SlottingRecommendation) ClearDomainEvents() {
	r.DomainEvents = make([]DomainEvent, 0)
}
