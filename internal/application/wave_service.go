package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wms-platform/inventory-ops-service/internal/domain"
	apperrors "github.com/wms-platform/inventory-ops-service/pkg/errors"
	"github.com/wms-platform/inventory-ops-service/pkg/logging"
	"github.com/wms-platform/inventory-ops-service/pkg/metrics"
)

// WaveService plans, releases and executes pick waves. All stock effects
// go through the AllocationService; the wave aggregate only tracks task
// state.
type WaveService struct {
	waves      domain.WaveRepository
	ledger     domain.LedgerRepository
	allocation *AllocationService
	orders     domain.OrderService
	publisher  EventPublisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewWaveService creates a new WaveService
func NewWaveService(
	waves domain.WaveRepository,
	ledger domain.LedgerRepository,
	allocation *AllocationService,
	orders domain.OrderService,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *WaveService {
	return &WaveService{
		waves:      waves,
		ledger:     ledger,
		allocation: allocation,
		orders:     orders,
		publisher:  publisher,
		metrics:    m,
		logger:     logger,
	}
}

// Plan creates a wave for the given orders, reserves stock for every line
// in FEFO order and generates the serpentine pick path. A line that cannot
// be fully reserved fails the whole wave: every reservation taken so far
// is released before returning.
func (s *WaveService) Plan(ctx context.Context, cmd PlanWaveCommand) (*WaveDTO, error) {
	wave, err := domain.NewWave(cmd.TenantID, cmd.WarehouseID, cmd.PickerID, cmd.OrderIDs)
	if err != nil {
		return nil, mapDomainError(err)
	}

	lines, err := s.orders.GetOrderLines(ctx, cmd.TenantID, wave.OrderIDs)
	if err != nil {
		return nil, apperrors.ErrInternal("failed to resolve order lines").WithCause(err)
	}
	if len(lines) == 0 {
		return nil, apperrors.ErrValidation("orders have no open lines")
	}

	stops, err := s.reserveLines(ctx, wave, lines)
	if err != nil {
		return nil, err
	}

	stops = domain.SequenceStops(stops)
	if err := wave.MarkPlanned(stops); err != nil {
		s.compensate(ctx, cmd.TenantID, wave.WaveID, stops)
		return nil, mapDomainError(err)
	}

	if err := s.waves.Save(ctx, wave); err != nil {
		s.compensate(ctx, cmd.TenantID, wave.WaveID, stops)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordWavePlanned(len(stops))
	}
	publishEvents(ctx, s.publisher, s.logger, cmd.TenantID, wave.WaveID, wave.DomainEvents)
	wave.ClearDomainEvents()

	logging.WithContext(ctx, s.logger).Info("wave planned",
		slog.String("waveId", wave.WaveID),
		slog.Int("orders", len(wave.OrderIDs)),
		slog.Int("stops", len(stops)),
	)
	return ToWaveDTO(wave), nil
}

// reserveLines reserves stock line by line, splitting across cells in FEFO
// order. On any shortfall everything reserved so far is compensated.
func (s *WaveService) reserveLines(ctx context.Context, wave *domain.Wave, lines []domain.OrderLine) ([]domain.PickStop, error) {
	stops := make([]domain.PickStop, 0, len(lines))

	for _, line := range lines {
		if line.Quantity <= 0 {
			s.compensate(ctx, wave.TenantID, wave.WaveID, stops)
			return nil, apperrors.ErrValidation(fmt.Sprintf("order %s has a non-positive line quantity", line.OrderID))
		}

		cells, err := s.ledger.FindCellsByProduct(ctx, wave.TenantID, wave.WarehouseID, line.ProductID)
		if err != nil {
			s.compensate(ctx, wave.TenantID, wave.WaveID, stops)
			return nil, err
		}
		domain.SortCellsFEFO(cells)

		remaining := line.Quantity
		for _, cell := range cells {
			if remaining == 0 {
				break
			}
			take := cell.Available()
			if take == 0 {
				continue
			}
			if take > remaining {
				take = remaining
			}

			result, err := s.allocation.Reserve(ctx, ReserveStockCommand{
				TenantID:      wave.TenantID,
				WarehouseID:   wave.WarehouseID,
				ProductID:     line.ProductID,
				LocationID:    cell.LocationID,
				Quantity:      take,
				BatchID:       cell.BatchID,
				Actor:         wave.PickerID,
				CorrelationID: wave.WaveID,
			})
			if err != nil {
				// Another writer may have consumed this cell; move on
				// to the next candidate instead of failing outright.
				if apperrors.HasCode(err, apperrors.CodeInsufficientStock) || apperrors.HasCode(err, apperrors.CodeConflict) {
					continue
				}
				s.compensate(ctx, wave.TenantID, wave.WaveID, stops)
				return nil, err
			}

			for _, reservation := range result.Reservations {
				stops = append(stops, domain.PickStop{
					TaskID:        domain.NewPickTaskID(),
					OrderID:       line.OrderID,
					ProductID:     reservation.ProductID,
					LocationID:    reservation.LocationID,
					BatchID:       reservation.BatchID,
					Quantity:      reservation.Quantity,
					ReservationID: reservation.ReservationID,
					Status:        domain.PickTaskPending,
				})
				remaining -= reservation.Quantity
			}
		}

		if remaining > 0 {
			s.compensate(ctx, wave.TenantID, wave.WaveID, stops)
			return nil, apperrors.ErrInsufficientStock(
				fmt.Sprintf("cannot fully reserve %d units of %s for order %s", line.Quantity, line.ProductID, line.OrderID))
		}
	}
	return stops, nil
}

// compensate releases every reservation taken for a failed or aborted
// wave. Release failures are logged, not propagated: the reservations are
// inert and a later sweep can still free them.
func (s *WaveService) compensate(ctx context.Context, tenantID, waveID string, stops []domain.PickStop) {
	for _, stop := range stops {
		_, err := s.allocation.Release(ctx, ReleaseReservationCommand{
			TenantID:      tenantID,
			ReservationID: stop.ReservationID,
			Actor:         "wave-planner",
			CorrelationID: waveID,
		})
		if err != nil {
			logging.WithContext(ctx, s.logger).Error("failed to release reservation during wave compensation",
				slog.String("waveId", waveID),
				slog.String("reservationId", stop.ReservationID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Release makes a planned wave's pick tasks visible to the picker.
func (s *WaveService) Release(ctx context.Context, cmd ReleaseWaveCommand) (*WaveDTO, error) {
	wave, err := s.findWave(ctx, cmd.TenantID, cmd.WaveID)
	if err != nil {
		return nil, err
	}
	if err := wave.Release(); err != nil {
		return nil, mapDomainError(err)
	}
	if err := s.waves.Save(ctx, wave); err != nil {
		return nil, err
	}
	publishEvents(ctx, s.publisher, s.logger, cmd.TenantID, wave.WaveID, wave.DomainEvents)
	wave.ClearDomainEvents()
	return ToWaveDTO(wave), nil
}

// Execute records picked quantities task by task. Each task commits its
// counted quantity and explicitly releases any short remainder; per-task
// failures are reported in the result, they never roll back other tasks.
func (s *WaveService) Execute(ctx context.Context, cmd ExecuteWaveCommand) (*WaveExecutionDTO, error) {
	if len(cmd.Lines) == 0 {
		return nil, apperrors.ErrValidation("at least one line is required")
	}

	wave, err := s.findWave(ctx, cmd.TenantID, cmd.WaveID)
	if err != nil {
		return nil, err
	}
	if wave.Status != domain.WaveStatusReleased && wave.Status != domain.WaveStatusPicking {
		return nil, apperrors.ErrInvalidStateTransition(
			fmt.Sprintf("wave %s is %s, expected RELEASED or PICKING", wave.WaveID, wave.Status))
	}

	results := make([]TaskResultDTO, 0, len(cmd.Lines))
	for _, line := range cmd.Lines {
		results = append(results, s.executeTask(ctx, cmd, wave, line))
	}

	if err := s.waves.Save(ctx, wave); err != nil {
		return nil, err
	}

	if wave.Status == domain.WaveStatusDone && s.metrics != nil {
		s.metrics.RecordWaveCompleted()
	}
	publishEvents(ctx, s.publisher, s.logger, cmd.TenantID, wave.WaveID, wave.DomainEvents)
	wave.ClearDomainEvents()

	return &WaveExecutionDTO{Wave: ToWaveDTO(wave), Results: results}, nil
}

func (s *WaveService) executeTask(ctx context.Context, cmd ExecuteWaveCommand, wave *domain.Wave, line WaveLineResult) TaskResultDTO {
	result := TaskResultDTO{TaskID: line.TaskID}

	stop := wave.FindStop(line.TaskID)
	if stop == nil {
		result.Status = "ERROR"
		result.Error = "pick task not found in wave"
		return result
	}
	if stop.Status != domain.PickTaskPending {
		result.Status = string(stop.Status)
		result.Error = "pick task has already been resolved"
		return result
	}
	if line.CountedQty < 0 || line.CountedQty > stop.Quantity {
		result.Status = string(stop.Status)
		result.Error = fmt.Sprintf("countedQty must be between 0 and %d", stop.Quantity)
		return result
	}

	if line.CountedQty > 0 {
		if _, err := s.allocation.Commit(ctx, CommitPickCommand{
			TenantID:      cmd.TenantID,
			ReservationID: stop.ReservationID,
			ActualQty:     line.CountedQty,
			Actor:         cmd.Actor,
			CorrelationID: wave.WaveID,
		}); err != nil {
			result.Status = string(stop.Status)
			result.Error = err.Error()
			return result
		}
		result.CommittedQty = line.CountedQty
	}

	// A short or zero pick releases the remainder, explicitly visible in
	// the result.
	if line.CountedQty < stop.Quantity {
		released, err := s.allocation.Release(ctx, ReleaseReservationCommand{
			TenantID:      cmd.TenantID,
			ReservationID: stop.ReservationID,
			Actor:         cmd.Actor,
			CorrelationID: wave.WaveID,
		})
		if err != nil {
			result.Status = string(stop.Status)
			result.Error = err.Error()
			return result
		}
		result.ReleasedQty = released.ReleasedQty
	}

	if err := wave.RecordPick(line.TaskID, line.CountedQty); err != nil {
		result.Status = string(stop.Status)
		result.Error = err.Error()
		return result
	}
	result.Status = string(stop.Status)
	return result
}

// Cancel aborts a wave before completion and releases every outstanding
// reservation. A wave with any committed pick cannot be cancelled.
func (s *WaveService) Cancel(ctx context.Context, cmd CancelWaveCommand) (*WaveDTO, error) {
	wave, err := s.findWave(ctx, cmd.TenantID, cmd.WaveID)
	if err != nil {
		return nil, err
	}

	outstanding := wave.OutstandingStops()
	if err := wave.Cancel(cmd.Reason); err != nil {
		return nil, mapDomainError(err)
	}

	s.compensate(ctx, cmd.TenantID, wave.WaveID, outstanding)

	if err := s.waves.Save(ctx, wave); err != nil {
		return nil, err
	}
	publishEvents(ctx, s.publisher, s.logger, cmd.TenantID, wave.WaveID, wave.DomainEvents)
	wave.ClearDomainEvents()

	logging.WithContext(ctx, s.logger).Info("wave cancelled",
		slog.String("waveId", wave.WaveID),
		slog.String("reason", cmd.Reason),
	)
	return ToWaveDTO(wave), nil
}

// GetWave returns one wave with its pick path.
func (s *WaveService) GetWave(ctx context.Context, tenantID, waveID string) (*WaveDTO, error) {
	wave, err := s.findWave(ctx, tenantID, waveID)
	if err != nil {
		return nil, err
	}
	return ToWaveDTO(wave), nil
}

func (s *WaveService) findWave(ctx context.Context, tenantID, waveID string) (*domain.Wave, error) {
	wave, err := s.waves.FindByWaveID(ctx, tenantID, waveID)
	if err != nil {
		return nil, err
	}
	if wave == nil {
		return nil, apperrors.ErrNotFoundWithID("wave", waveID)
	}
	return wave, nil
}
