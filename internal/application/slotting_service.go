package application

import (
	"context"
	"log/slog"

	"github.com/wms-platform/inventory-ops-service/internal/domain"
	apperrors "github.com/wms-platform/inventory-ops-service/pkg/errors"
	"github.com/wms-platform/inventory-ops-service/pkg/logging"
	"github.com/wms-platform/inventory-ops-service/pkg/metrics"
)

const slottingEngine = "slotting"

// DefaultScoreFloor suppresses recommendations whose placement score does
// not clear this bar; marginal gains are noise to the operators.
const DefaultScoreFloor = 40

// SlottingService classifies SKUs by turnover and variability and
// recommends better picking placements. Execution is a plain move through
// the AllocationService.
type SlottingService struct {
	recommendations domain.RecommendationRepository
	locations       domain.LocationRepository
	products        domain.ProductRepository
	ledger          domain.LedgerRepository
	allocation      *AllocationService
	publisher       EventPublisher
	metrics         *metrics.Metrics
	logger          *slog.Logger
	scoreFloor      int
}

// NewSlottingService creates a new SlottingService
func NewSlottingService(
	recommendations domain.RecommendationRepository,
	locations domain.LocationRepository,
	products domain.ProductRepository,
	ledger domain.LedgerRepository,
	allocation *AllocationService,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *SlottingService {
	return &SlottingService{
		recommendations: recommendations,
		locations:       locations,
		products:        products,
		ledger:          ledger,
		allocation:      allocation,
		publisher:       publisher,
		metrics:         m,
		logger:          logger,
		scoreFloor:      DefaultScoreFloor,
	}
}

// WithScoreFloor overrides the minimum placement score a recommendation
// must clear. Non-positive values keep the default.
func (s *SlottingService) WithScoreFloor(floor int) *SlottingService {
	if floor > 0 {
		s.scoreFloor = floor
	}
	return s
}

// Evaluate classifies the consumption window into ABC/XYZ and emits a
// recommendation for every SKU whose best picking placement beats its
// current one and clears the score floor.
func (s *SlottingService) Evaluate(ctx context.Context, cmd EvaluateSlottingCommand) ([]*RecommendationDTO, error) {
	if len(cmd.Consumption) == 0 {
		return nil, apperrors.ErrValidation("consumption window is required")
	}

	stats := make([]domain.ConsumptionStats, 0, len(cmd.Consumption))
	for _, c := range cmd.Consumption {
		if c.SKU == "" {
			return nil, apperrors.ErrValidation("consumption entries must name a sku")
		}
		stats = append(stats, domain.ConsumptionStats{SKU: c.SKU, WeeklyQty: c.WeeklyQty})
	}
	classes := domain.ClassifySKUs(stats)

	pickingRecords, err := s.locations.ListByType(ctx, cmd.TenantID, cmd.WarehouseID, domain.LocationTypePicking)
	if err != nil {
		return nil, err
	}
	if len(pickingRecords) == 0 {
		return nil, apperrors.ErrValidation("warehouse has no picking locations configured")
	}

	created := make([]*RecommendationDTO, 0)
	for _, class := range classes {
		recommendation, err := s.evaluateSKU(ctx, cmd.TenantID, cmd.WarehouseID, class, pickingRecords)
		if err != nil {
			logging.WithContext(ctx, s.logger).Error("slotting evaluation failed",
				slog.String("sku", class.SKU),
				slog.String("error", err.Error()),
			)
			continue
		}
		if recommendation == nil {
			continue
		}
		created = append(created, ToRecommendationDTO(recommendation))
	}

	logging.WithContext(ctx, s.logger).Info("slotting evaluation finished",
		slog.Int("skus", len(classes)),
		slog.Int("recommendations", len(created)),
	)
	return created, nil
}

func (s *SlottingService) evaluateSKU(ctx context.Context, tenantID, warehouseID string, class domain.SKUClassification, pickingRecords []domain.LocationRecord) (*domain.SlottingRecommendation, error) {
	current, err := s.currentPickingLocation(ctx, tenantID, warehouseID, class.SKU, pickingRecords)
	if err != nil {
		return nil, err
	}
	if current == "" {
		// Not slotted in any picking location; nothing to re-slot.
		return nil, nil
	}

	profile, err := s.products.FindProfile(ctx, tenantID, class.SKU)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &domain.ProductProfile{TenantID: tenantID, SKU: class.SKU}
	}

	currentScore := domain.ScorePlacement(class, domain.ParseLocationOrSimple(current), *profile)

	bestLocation := ""
	bestScore := -1
	for _, record := range pickingRecords {
		if record.LocationID == current {
			continue
		}
		score := domain.ScorePlacement(class, domain.ParseLocationOrSimple(record.LocationID), *profile)
		if score > bestScore || (score == bestScore && record.LocationID < bestLocation) {
			bestScore = score
			bestLocation = record.LocationID
		}
	}

	if bestLocation == "" || bestScore <= currentScore || bestScore < s.scoreFloor {
		return nil, nil
	}

	open, err := s.recommendations.FindOpenForSKU(ctx, tenantID, warehouseID, class.SKU)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, nil
	}

	recommendation, err := domain.NewSlottingRecommendation(tenantID, warehouseID, class, current, bestLocation, bestScore, currentScore)
	if err != nil {
		return nil, mapDomainError(err)
	}
	if err := s.recommendations.Save(ctx, recommendation); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordSuggestionCreated(slottingEngine)
	}
	publishEvents(ctx, s.publisher, s.logger, tenantID, recommendation.RecommendationID, recommendation.DomainEvents)
	recommendation.ClearDomainEvents()
	return recommendation, nil
}

// currentPickingLocation finds where the SKU is slotted today: the picking
// location holding the most of it, lowest location code on ties.
func (s *SlottingService) currentPickingLocation(ctx context.Context, tenantID, warehouseID, sku string, pickingRecords []domain.LocationRecord) (string, error) {
	picking := make(map[string]bool, len(pickingRecords))
	for _, r := range pickingRecords {
		picking[r.LocationID] = true
	}

	cells, err := s.ledger.FindCellsByProduct(ctx, tenantID, warehouseID, sku)
	if err != nil {
		return "", err
	}

	totals := make(map[string]int)
	for _, cell := range cells {
		if picking[cell.LocationID] && cell.OnHandQty > 0 {
			totals[cell.LocationID] += cell.OnHandQty
		}
	}

	best := ""
	bestQty := 0
	for locationID, qty := range totals {
		if qty > bestQty || (qty == bestQty && best != "" && locationID < best) {
			best = locationID
			bestQty = qty
		}
	}
	return best, nil
}

// List returns recommendations filtered by status.
func (s *SlottingService) List(ctx context.Context, tenantID, warehouseID string, status domain.SuggestionStatus) ([]*RecommendationDTO, error) {
	recommendations, err := s.recommendations.FindByStatus(ctx, tenantID, warehouseID, status)
	if err != nil {
		return nil, err
	}
	out := make([]*RecommendationDTO, 0, len(recommendations))
	for _, r := range recommendations {
		out = append(out, ToRecommendationDTO(r))
	}
	return out, nil
}

// Approve marks a recommendation APPROVED; re-approving is a no-op.
func (s *SlottingService) Approve(ctx context.Context, cmd RecommendationActionCommand) (*RecommendationDTO, error) {
	recommendation, err := s.findRecommendation(ctx, cmd.TenantID, cmd.RecommendationID)
	if err != nil {
		return nil, err
	}
	if err := recommendation.Approve(); err != nil {
		return nil, mapDomainError(err)
	}
	if err := s.recommendations.Save(ctx, recommendation); err != nil {
		return nil, err
	}
	return ToRecommendationDTO(recommendation), nil
}

// Reject marks a recommendation REJECTED; re-rejecting is a no-op.
func (s *SlottingService) Reject(ctx context.Context, cmd RecommendationActionCommand) (*RecommendationDTO, error) {
	recommendation, err := s.findRecommendation(ctx, cmd.TenantID, cmd.RecommendationID)
	if err != nil {
		return nil, err
	}
	if err := recommendation.Reject(); err != nil {
		return nil, mapDomainError(err)
	}
	if err := s.recommendations.Save(ctx, recommendation); err != nil {
		return nil, err
	}
	return ToRecommendationDTO(recommendation), nil
}

// Execute moves the SKU's stock from its current to its recommended
// location and marks the recommendation EXECUTED. An already-EXECUTED
// recommendation is returned unchanged without a second movement.
func (s *SlottingService) Execute(ctx context.Context, cmd RecommendationActionCommand) (*RecommendationDTO, error) {
	recommendation, err := s.findRecommendation(ctx, cmd.TenantID, cmd.RecommendationID)
	if err != nil {
		return nil, err
	}
	if recommendation.Status == domain.SuggestionStatusExecuted {
		return ToRecommendationDTO(recommendation), nil
	}
	if recommendation.Status == domain.SuggestionStatusRejected {
		return nil, mapDomainError(domain.ErrSuggestionRejected)
	}

	cells, err := s.ledger.FindCellsAtLocation(ctx, recommendation.TenantID, recommendation.WarehouseID, recommendation.SKU, recommendation.CurrentLocation)
	if err != nil {
		return nil, err
	}
	quantity := totalAvailable(cells)
	if quantity > 0 {
		if _, err := s.allocation.Move(ctx, MoveStockCommand{
			TenantID:      recommendation.TenantID,
			WarehouseID:   recommendation.WarehouseID,
			ProductID:     recommendation.SKU,
			FromLocation:  recommendation.CurrentLocation,
			ToLocation:    recommendation.RecommendedLocation,
			Quantity:      quantity,
			Reason:        "slotting",
			Actor:         cmd.Actor,
			CorrelationID: recommendation.RecommendationID,
		}); err != nil {
			return nil, err
		}
	}

	if err := recommendation.MarkExecuted(); err != nil {
		return nil, mapDomainError(err)
	}
	if err := s.recommendations.Save(ctx, recommendation); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordSuggestionExecuted(slottingEngine)
	}
	publishEvents(ctx, s.publisher, s.logger, cmd.TenantID, recommendation.RecommendationID, recommendation.DomainEvents)
	recommendation.ClearDomainEvents()
	return ToRecommendationDTO(recommendation), nil
}

func (s *SlottingService) findRecommendation(ctx context.Context, tenantID, recommendationID string) (*domain.SlottingRecommendation, error) {
	recommendation, err := s.recommendations.FindByRecommendationID(ctx, tenantID, recommendationID)
	if err != nil {
		return nil, err
	}
	if recommendation == nil {
		return nil, apperrors.ErrNotFoundWithID("recommendation", recommendationID)
	}
	return recommendation, nil
}
