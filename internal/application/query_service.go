package application

import (
	"context"
	"time"

	"github.com/wms-platform/inventory-ops-service/internal/domain"
	apperrors "github.com/wms-platform/inventory-ops-service/pkg/errors"
)

// QueryService serves the read side of the engine: stock lookups and
// movement traceability. It never mutates anything.
type QueryService struct {
	ledger    domain.LedgerRepository
	movements domain.MovementRepository
}

// NewQueryService creates a new QueryService
func NewQueryService(ledger domain.LedgerRepository, movements domain.MovementRepository) *QueryService {
	return &QueryService{ledger: ledger, movements: movements}
}

// GetStock returns a product's stock across the warehouse, cells ordered
// for consumption.
func (s *QueryService) GetStock(ctx context.Context, tenantID, warehouseID, productID string) (*StockSummaryDTO, error) {
	if productID == "" {
		return nil, apperrors.ErrValidation("productId is required")
	}
	cells, err := s.ledger.FindCellsByProduct(ctx, tenantID, warehouseID, productID)
	if err != nil {
		return nil, err
	}
	domain.SortCellsFEFO(cells)

	summary := &StockSummaryDTO{ProductID: productID, Cells: make([]StockCellDTO, 0, len(cells))}
	for _, cell := range cells {
		summary.OnHandQty += cell.OnHandQty
		summary.ReservedQty += cell.ReservedQty
		summary.AvailableQty += cell.Available()
		summary.Cells = append(summary.Cells, ToStockCellDTO(cell))
	}
	return summary, nil
}

// GetAvailable returns the available quantity at one location, optionally
// narrowed to a batch.
func (s *QueryService) GetAvailable(ctx context.Context, tenantID, warehouseID, productID, locationID, batchID string) (int, error) {
	if productID == "" {
		return 0, apperrors.ErrValidation("productId is required")
	}
	if locationID == "" {
		return 0, apperrors.ErrValidation("locationId is required")
	}
	if batchID != "" {
		cell, err := s.ledger.FindCell(ctx, domain.CellKey{
			TenantID:    tenantID,
			WarehouseID: warehouseID,
			ProductID:   productID,
			LocationID:  locationID,
			BatchID:     batchID,
		})
		if err != nil {
			return 0, err
		}
		if cell == nil {
			return 0, nil
		}
		return cell.Available(), nil
	}

	cells, err := s.ledger.FindCellsAtLocation(ctx, tenantID, warehouseID, productID, locationID)
	if err != nil {
		return 0, err
	}
	return totalAvailable(cells), nil
}

// TraceByCorrelation returns every movement tied to one originating
// document (receipt, wave, suggestion, cycle count), oldest first. This is
// the order-to-movements traversal.
func (s *QueryService) TraceByCorrelation(ctx context.Context, tenantID, correlationID string) ([]MovementDTO, error) {
	if correlationID == "" {
		return nil, apperrors.ErrValidation("correlationId is required")
	}
	movements, err := s.movements.FindByCorrelationID(ctx, tenantID, correlationID)
	if err != nil {
		return nil, err
	}
	return toMovementDTOs(movements), nil
}

// TraceByProduct returns a product's movement history since the given
// time, oldest first.
func (s *QueryService) TraceByProduct(ctx context.Context, tenantID, productID string, since time.Time) ([]MovementDTO, error) {
	if productID == "" {
		return nil, apperrors.ErrValidation("productId is required")
	}
	movements, err := s.movements.FindByProduct(ctx, tenantID, productID, since)
	if err != nil {
		return nil, err
	}
	return toMovementDTOs(movements), nil
}

// ConsumptionWindow aggregates committed picks into weekly buckets per
// SKU over the trailing window, feeding the slotting classifier.
func (s *QueryService) ConsumptionWindow(ctx context.Context, tenantID, warehouseID string, weeks int) ([]SKUConsumption, error) {
	if weeks <= 0 {
		return nil, apperrors.ErrValidation("weeks must be positive")
	}

	since := time.Now().UTC().AddDate(0, 0, -7*weeks)
	commits, err := s.movements.FindCommitsSince(ctx, tenantID, warehouseID, since)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string][]int)
	for _, m := range commits {
		weekly, ok := buckets[m.ProductID]
		if !ok {
			weekly = make([]int, weeks)
			buckets[m.ProductID] = weekly
		}
		week := int(time.Since(m.CreatedAt).Hours() / (24 * 7))
		if week < 0 || week >= weeks {
			continue
		}
		// Index 0 is the most recent week.
		weekly[week] += m.Quantity
	}

	out := make([]SKUConsumption, 0, len(buckets))
	for sku, weekly := range buckets {
		out = append(out, SKUConsumption{SKU: sku, WeeklyQty: weekly})
	}
	return out, nil
}

func toMovementDTOs(movements []domain.MovementRecord) []MovementDTO {
	out := make([]MovementDTO, 0, len(movements))
	for i := range movements {
		out = append(out, *ToMovementDTO(&movements[i]))
	}
	return out
}
