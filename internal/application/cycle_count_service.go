package application

import (
	"context"
	"log/slog"

	"github.com/wms-platform/inventory-ops-service/internal/domain"
	apperrors "github.com/wms-platform/inventory-ops-service/pkg/errors"
	"github.com/wms-platform/inventory-ops-service/pkg/logging"
	"github.com/wms-platform/inventory-ops-service/pkg/metrics"
)

// CycleCountService reconciles physical counts against the ledger. Only an
// approved review mutates stock, and it does so through the
// AllocationService as explicit adjustments.
type CycleCountService struct {
	tasks      domain.CycleCountRepository
	ledger     domain.LedgerRepository
	allocation *AllocationService
	publisher  EventPublisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewCycleCountService creates a new CycleCountService
func NewCycleCountService(
	tasks domain.CycleCountRepository,
	ledger domain.LedgerRepository,
	allocation *AllocationService,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *CycleCountService {
	return &CycleCountService{
		tasks:      tasks,
		ledger:     ledger,
		allocation: allocation,
		publisher:  publisher,
		metrics:    m,
		logger:     logger,
	}
}

// Create snapshots the theoretical quantity of every cell in scope into a
// new counting task. The snapshot is deliberately taken once, at creation.
func (s *CycleCountService) Create(ctx context.Context, cmd CreateCycleCountCommand) (*CycleCountDTO, error) {
	cells, err := s.ledger.ListCells(ctx, cmd.TenantID, cmd.WarehouseID, domain.CellFilter{
		Zones:     cmd.Zones,
		Locations: cmd.Locations,
		Products:  cmd.Products,
	})
	if err != nil {
		return nil, err
	}

	lines := make([]domain.CycleCountLine, 0, len(cells))
	for _, cell := range cells {
		lines = append(lines, domain.CycleCountLine{
			LocationID:  cell.LocationID,
			SKU:         cell.ProductID,
			BatchID:     cell.BatchID,
			Theoretical: cell.OnHandQty,
		})
	}

	task, err := domain.NewCycleCountTask(cmd.TenantID, domain.CycleCountScope{
		WarehouseID: cmd.WarehouseID,
		Zones:       cmd.Zones,
		Locations:   cmd.Locations,
		Products:    cmd.Products,
	}, lines)
	if err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	logging.WithContext(ctx, s.logger).Info("cycle count created",
		slog.String("taskId", task.TaskID),
		slog.Int("lines", len(lines)),
	)
	return ToCycleCountDTO(task), nil
}

// Execute records physical counts on the task without touching the ledger.
func (s *CycleCountService) Execute(ctx context.Context, cmd ExecuteCycleCountCommand) (*CycleCountDTO, error) {
	if len(cmd.Lines) == 0 {
		return nil, apperrors.ErrValidation("at least one counted line is required")
	}

	task, err := s.findTask(ctx, cmd.TenantID, cmd.TaskID)
	if err != nil {
		return nil, err
	}

	for _, line := range cmd.Lines {
		if err := task.RecordCount(line.LocationID, line.SKU, line.BatchID, line.Counted); err != nil {
			return nil, mapDomainError(err)
		}
	}
	if err := task.FinishCounting(); err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return ToCycleCountDTO(task), nil
}

// Review closes the task. On approval every non-zero counted-vs-theoretical
// difference becomes exactly one adjustment movement correlated to the
// task; on rejection nothing touches the ledger and the differences stay
// recorded for audit. Uncounted lines are excluded, never assumed zero.
// A delta that cannot be applied, such as a shortfall held by an active
// reservation, is reported per line with its error code rather than
// failing the whole review or disappearing from the response.
func (s *CycleCountService) Review(ctx context.Context, cmd ReviewCycleCountCommand) (*CycleCountReviewDTO, error) {
	task, err := s.findTask(ctx, cmd.TenantID, cmd.TaskID)
	if err != nil {
		return nil, err
	}

	if err := task.Review(cmd.Approve); err != nil {
		return nil, mapDomainError(err)
	}

	adjustments := make([]CycleCountAdjustmentDTO, 0)
	if cmd.Approve {
		for _, delta := range task.Deltas() {
			outcome := CycleCountAdjustmentDTO{
				LocationID: delta.LocationID,
				SKU:        delta.SKU,
				BatchID:    delta.BatchID,
				Delta:      delta.Delta,
			}
			movement, err := s.allocation.Adjust(ctx, AdjustStockCommand{
				TenantID:      cmd.TenantID,
				WarehouseID:   task.WarehouseID,
				ProductID:     delta.SKU,
				LocationID:    delta.LocationID,
				Delta:         delta.Delta,
				BatchID:       delta.BatchID,
				Reason:        "cycle count reconciliation",
				Actor:         cmd.Actor,
				CorrelationID: task.TaskID,
			})
			if err != nil {
				outcome.ErrorCode = string(apperrors.CodeInternal)
				if appErr, ok := apperrors.AsAppError(err); ok {
					outcome.ErrorCode = string(appErr.Code)
				}
				logging.WithContext(ctx, s.logger).Error("cycle count adjustment failed",
					slog.String("taskId", task.TaskID),
					slog.String("sku", delta.SKU),
					slog.String("locationId", delta.LocationID),
					slog.Int("delta", delta.Delta),
					slog.String("error", err.Error()),
				)
				adjustments = append(adjustments, outcome)
				continue
			}
			if s.metrics != nil {
				direction := "inc"
				if delta.Delta < 0 {
					direction = "dec"
				}
				s.metrics.RecordCycleCountAdjustment(direction)
			}
			outcome.Applied = true
			outcome.Movement = movement
			adjustments = append(adjustments, outcome)
		}
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	publishEvents(ctx, s.publisher, s.logger, cmd.TenantID, task.TaskID, task.DomainEvents)
	task.ClearDomainEvents()

	return &CycleCountReviewDTO{Task: ToCycleCountDTO(task), Adjustments: adjustments}, nil
}

// Get returns one counting task.
func (s *CycleCountService) Get(ctx context.Context, tenantID, taskID string) (*CycleCountDTO, error) {
	task, err := s.findTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	return ToCycleCountDTO(task), nil
}

func (s *CycleCountService) findTask(ctx context.Context, tenantID, taskID string) (*domain.CycleCountTask, error) {
	task, err := s.tasks.FindByTaskID(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperrors.ErrNotFoundWithID("cycle count task", taskID)
	}
	return task, nil
}
