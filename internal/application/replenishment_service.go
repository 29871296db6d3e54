package application

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/wms-platform/inventory-ops-service/internal/domain"
	apperrors "github.com/wms-platform/inventory-ops-service/pkg/errors"
	"github.com/wms-platform/inventory-ops-service/pkg/logging"
	"github.com/wms-platform/inventory-ops-service/pkg/metrics"
)

const replenishmentEngine = "replenishment"

// ReplenishmentService evaluates min/max policies over picking locations
// and drives the suggestion lifecycle. Execution moves stock through the
// AllocationService, never directly.
type ReplenishmentService struct {
	suggestions domain.SuggestionRepository
	policies    domain.PolicyRepository
	locations   domain.LocationRepository
	ledger      domain.LedgerRepository
	allocation  *AllocationService
	publisher   EventPublisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewReplenishmentService creates a new ReplenishmentService
func NewReplenishmentService(
	suggestions domain.SuggestionRepository,
	policies domain.PolicyRepository,
	locations domain.LocationRepository,
	ledger domain.LedgerRepository,
	allocation *AllocationService,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ReplenishmentService {
	return &ReplenishmentService{
		suggestions: suggestions,
		policies:    policies,
		locations:   locations,
		ledger:      ledger,
		allocation:  allocation,
		publisher:   publisher,
		metrics:     m,
		logger:      logger,
	}
}

// Evaluate runs every configured policy of the warehouse and emits a
// pending suggestion per location found below its minimum. Locations with
// an open suggestion are skipped so evaluation can run on a schedule
// without piling up duplicates.
func (s *ReplenishmentService) Evaluate(ctx context.Context, cmd EvaluateReplenishmentCommand) ([]*SuggestionDTO, error) {
	policies, err := s.policies.ListPolicies(ctx, cmd.TenantID, cmd.WarehouseID)
	if err != nil {
		return nil, err
	}

	pickingLocations, err := s.pickingLocationSet(ctx, cmd.TenantID, cmd.WarehouseID)
	if err != nil {
		return nil, err
	}

	created := make([]*SuggestionDTO, 0)
	for _, policy := range policies {
		suggestion, err := s.evaluatePolicy(ctx, policy, pickingLocations)
		if err != nil {
			logging.WithContext(ctx, s.logger).Error("policy evaluation failed",
				slog.String("sku", policy.SKU),
				slog.String("locationId", policy.LocationID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if suggestion == nil {
			continue
		}
		created = append(created, ToSuggestionDTO(suggestion))
	}

	logging.WithContext(ctx, s.logger).Info("replenishment evaluation finished",
		slog.Int("policies", len(policies)),
		slog.Int("suggestions", len(created)),
	)
	return created, nil
}

func (s *ReplenishmentService) evaluatePolicy(ctx context.Context, policy domain.ReplenishmentPolicy, pickingLocations map[string]bool) (*domain.ReplenishmentSuggestion, error) {
	if err := policy.Validate(); err != nil {
		return nil, mapDomainError(err)
	}

	available, err := s.availableAt(ctx, policy.TenantID, policy.WarehouseID, policy.SKU, policy.LocationID)
	if err != nil {
		return nil, err
	}
	if available >= policy.Min {
		return nil, nil
	}

	open, err := s.suggestions.FindOpenForLocation(ctx, policy.TenantID, policy.WarehouseID, policy.SKU, policy.LocationID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, nil
	}

	source, sourceAvailable, err := s.bestSource(ctx, policy, pickingLocations)
	if err != nil {
		return nil, err
	}
	if source == "" || sourceAvailable == 0 {
		return nil, nil
	}

	needed := policy.Max - available
	if needed > sourceAvailable {
		needed = sourceAvailable
	}

	suggestion, err := domain.NewReplenishmentSuggestion(policy, source, "", needed)
	if err != nil {
		return nil, mapDomainError(err)
	}
	if err := s.suggestions.Save(ctx, suggestion); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordSuggestionCreated(replenishmentEngine)
	}
	publishEvents(ctx, s.publisher, s.logger, policy.TenantID, suggestion.SuggestionID, suggestion.DomainEvents)
	suggestion.ClearDomainEvents()
	return suggestion, nil
}

// bestSource picks the bulk location holding the most available stock of
// the SKU. Ties break on earliest expiry under FEFO, then lowest location
// code, so repeated evaluations stay deterministic.
func (s *ReplenishmentService) bestSource(ctx context.Context, policy domain.ReplenishmentPolicy, pickingLocations map[string]bool) (string, int, error) {
	cells, err := s.ledger.FindCellsByProduct(ctx, policy.TenantID, policy.WarehouseID, policy.SKU)
	if err != nil {
		return "", 0, err
	}

	type candidate struct {
		locationID string
		available  int
		expiry     *time.Time
	}
	byLocation := make(map[string]*candidate)
	for _, cell := range cells {
		if cell.LocationID == policy.LocationID || pickingLocations[cell.LocationID] {
			continue
		}
		if cell.Available() <= 0 {
			continue
		}
		c, ok := byLocation[cell.LocationID]
		if !ok {
			c = &candidate{locationID: cell.LocationID}
			byLocation[cell.LocationID] = c
		}
		c.available += cell.Available()
		if cell.Expiry != nil && (c.expiry == nil || cell.Expiry.Before(*c.expiry)) {
			c.expiry = cell.Expiry
		}
	}
	if len(byLocation) == 0 {
		return "", 0, nil
	}

	candidates := make([]*candidate, 0, len(byLocation))
	for _, c := range byLocation {
		candidates = append(candidates, c)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.available != b.available {
			return a.available > b.available
		}
		switch {
		case a.expiry != nil && b.expiry == nil:
			return true
		case a.expiry == nil && b.expiry != nil:
			return false
		case a.expiry != nil && b.expiry != nil && !a.expiry.Equal(*b.expiry):
			return a.expiry.Before(*b.expiry)
		}
		return a.locationID < b.locationID
	})

	best := candidates[0]
	return best.locationID, best.available, nil
}

func (s *ReplenishmentService) availableAt(ctx context.Context, tenantID, warehouseID, sku, locationID string) (int, error) {
	cells, err := s.ledger.FindCellsAtLocation(ctx, tenantID, warehouseID, sku, locationID)
	if err != nil {
		return 0, err
	}
	return totalAvailable(cells), nil
}

func (s *ReplenishmentService) pickingLocationSet(ctx context.Context, tenantID, warehouseID string) (map[string]bool, error) {
	records, err := s.locations.ListByType(ctx, tenantID, warehouseID, domain.LocationTypePicking)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(records))
	for _, r := range records {
		set[r.LocationID] = true
	}
	return set, nil
}

// List returns suggestions filtered by status.
func (s *ReplenishmentService) List(ctx context.Context, tenantID, warehouseID string, status domain.SuggestionStatus) ([]*SuggestionDTO, error) {
	suggestions, err := s.suggestions.FindByStatus(ctx, tenantID, warehouseID, status)
	if err != nil {
		return nil, err
	}
	out := make([]*SuggestionDTO, 0, len(suggestions))
	for _, suggestion := range suggestions {
		out = append(out, ToSuggestionDTO(suggestion))
	}
	return out, nil
}

// Approve marks a suggestion APPROVED; re-approving is a no-op.
func (s *ReplenishmentService) Approve(ctx context.Context, cmd SuggestionActionCommand) (*SuggestionDTO, error) {
	suggestion, err := s.findSuggestion(ctx, cmd.TenantID, cmd.SuggestionID)
	if err != nil {
		return nil, err
	}
	if err := suggestion.Approve(); err != nil {
		return nil, mapDomainError(err)
	}
	if err := s.suggestions.Save(ctx, suggestion); err != nil {
		return nil, err
	}
	return ToSuggestionDTO(suggestion), nil
}

// Reject marks a suggestion REJECTED; re-rejecting is a no-op.
func (s *ReplenishmentService) Reject(ctx context.Context, cmd SuggestionActionCommand) (*SuggestionDTO, error) {
	suggestion, err := s.findSuggestion(ctx, cmd.TenantID, cmd.SuggestionID)
	if err != nil {
		return nil, err
	}
	if err := suggestion.Reject(); err != nil {
		return nil, mapDomainError(err)
	}
	if err := s.suggestions.Save(ctx, suggestion); err != nil {
		return nil, err
	}
	return ToSuggestionDTO(suggestion), nil
}

// Execute performs the suggested move through the allocation engine and
// marks the suggestion EXECUTED. Executing an already-EXECUTED suggestion
// returns it unchanged without a second movement.
func (s *ReplenishmentService) Execute(ctx context.Context, cmd SuggestionActionCommand) (*SuggestionDTO, error) {
	suggestion, err := s.findSuggestion(ctx, cmd.TenantID, cmd.SuggestionID)
	if err != nil {
		return nil, err
	}
	if suggestion.Status == domain.SuggestionStatusExecuted {
		return ToSuggestionDTO(suggestion), nil
	}
	if suggestion.Status == domain.SuggestionStatusRejected {
		return nil, mapDomainError(domain.ErrSuggestionRejected)
	}

	if _, err := s.allocation.Move(ctx, MoveStockCommand{
		TenantID:      suggestion.TenantID,
		WarehouseID:   suggestion.WarehouseID,
		ProductID:     suggestion.SKU,
		FromLocation:  suggestion.SourceLocation,
		ToLocation:    suggestion.DestinationLocation,
		Quantity:      suggestion.SuggestedQty,
		BatchID:       suggestion.SourceBatchID,
		Reason:        "replenishment",
		Actor:         cmd.Actor,
		CorrelationID: suggestion.SuggestionID,
	}); err != nil {
		return nil, err
	}

	if err := suggestion.MarkExecuted(); err != nil {
		return nil, mapDomainError(err)
	}
	if err := s.suggestions.Save(ctx, suggestion); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordSuggestionExecuted(replenishmentEngine)
	}
	publishEvents(ctx, s.publisher, s.logger, cmd.TenantID, suggestion.SuggestionID, suggestion.DomainEvents)
	suggestion.ClearDomainEvents()
	return ToSuggestionDTO(suggestion), nil
}

// UpsertPolicy stores a replenishment policy.
func (s *ReplenishmentService) UpsertPolicy(ctx context.Context, cmd UpsertPolicyCommand) (*PolicyDTO, error) {
	policy := domain.ReplenishmentPolicy{
		TenantID:    cmd.TenantID,
		WarehouseID: cmd.WarehouseID,
		SKU:         cmd.SKU,
		LocationID:  cmd.LocationID,
		Min:         cmd.Min,
		Max:         cmd.Max,
		SafetyStock: cmd.SafetyStock,
		Strategy:    cmd.Strategy,
	}
	if err := policy.Validate(); err != nil {
		return nil, mapDomainError(err)
	}
	if err := s.policies.SavePolicy(ctx, policy); err != nil {
		return nil, err
	}
	dto := ToPolicyDTO(policy)
	return &dto, nil
}

// ListPolicies returns the warehouse's replenishment policies.
func (s *ReplenishmentService) ListPolicies(ctx context.Context, tenantID, warehouseID string) ([]PolicyDTO, error) {
	policies, err := s.policies.ListPolicies(ctx, tenantID, warehouseID)
	if err != nil {
		return nil, err
	}
	out := make([]PolicyDTO, 0, len(policies))
	for _, p := range policies {
		out = append(out, ToPolicyDTO(p))
	}
	return out, nil
}

func (s *ReplenishmentService) findSuggestion(ctx context.Context, tenantID, suggestionID string) (*domain.ReplenishmentSuggestion, error) {
	suggestion, err := s.suggestions.FindBySuggestionID(ctx, tenantID, suggestionID)
	if err != nil {
		return nil, err
	}
	if suggestion == nil {
		return nil, apperrors.ErrNotFoundWithID("suggestion", suggestionID)
	}
	return suggestion, nil
}
