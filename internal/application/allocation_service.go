package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wms-platform/inventory-ops-service/internal/domain"
	apperrors "github.com/wms-platform/inventory-ops-service/pkg/errors"
	"github.com/wms-platform/inventory-ops-service/pkg/logging"
	"github.com/wms-platform/inventory-ops-service/pkg/metrics"
)

// DefaultConflictRetries bounds how often an operation is re-attempted
// after an optimistic version conflict before CONFLICT surfaces to the
// caller.
const DefaultConflictRetries = 3

// defaultUOM is assumed when a receive does not name a unit of measure.
const defaultUOM = "EA"

// AllocationService is the single mutating path into the inventory ledger.
// Every operation re-reads its cells, applies the caller's intent and
// saves under compare-and-swap; conflicts rebuild from fresh state rather
// than replaying observed values.
type AllocationService struct {
	ledger       domain.LedgerRepository
	movements    domain.MovementRepository
	reservations domain.ReservationRepository
	publisher    EventPublisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
	maxRetries   int
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	ledger domain.LedgerRepository,
	movements domain.MovementRepository,
	reservations domain.ReservationRepository,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AllocationService {
	return &AllocationService{
		ledger:       ledger,
		movements:    movements,
		reservations: reservations,
		publisher:    publisher,
		metrics:      m,
		logger:       logger,
		maxRetries:   DefaultConflictRetries,
	}
}

// WithConflictRetries overrides the retry bound for optimistic version
// conflicts. Non-positive values keep the default.
func (s *AllocationService) WithConflictRetries(retries int) *AllocationService {
	if retries > 0 {
		s.maxRetries = retries
	}
	return s
}

// Receive adds stock at a location, creating the cell on first receipt.
func (s *AllocationService) Receive(ctx context.Context, cmd ReceiveStockCommand) (*MovementDTO, error) {
	if cmd.ProductID == "" {
		return nil, apperrors.ErrValidation("productId is required")
	}
	if cmd.ToLocation == "" {
		return nil, apperrors.ErrValidation("toLocation is required")
	}
	if cmd.Quantity <= 0 {
		return nil, apperrors.ErrValidation("quantity must be positive")
	}

	uom := cmd.UOM
	if uom == "" {
		uom = defaultUOM
	}

	txn, err := s.runTxn(ctx, func() (*domain.LedgerTxn, error) {
		key := domain.CellKey{
			TenantID:    cmd.TenantID,
			WarehouseID: cmd.WarehouseID,
			ProductID:   cmd.ProductID,
			LocationID:  cmd.ToLocation,
			BatchID:     cmd.BatchID,
		}
		cell, err := s.ledger.FindCell(ctx, key)
		if err != nil {
			return nil, err
		}
		if cell == nil {
			cell = domain.NewStockCell(key, uom, cmd.Expiry)
		}
		expected := cell.Version
		if err := cell.AddStock(cmd.Quantity); err != nil {
			return nil, mapDomainError(err)
		}

		movement, err := domain.NewMovementRecord(cmd.TenantID, cmd.WarehouseID, domain.MovementReceive, cmd.ProductID, cmd.Quantity)
		if err != nil {
			return nil, mapDomainError(err)
		}
		movement.WithLocations("", cmd.ToLocation).
			WithBatch(cmd.BatchID).
			WithCorrelation(cmd.CorrelationID).
			WithActor(cmd.Actor)

		return &domain.LedgerTxn{
			Writes:   []domain.CellWrite{{Cell: cell, ExpectedVersion: expected}},
			Movement: movement,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterApply(ctx, cmd.TenantID, txn)
	return ToMovementDTO(txn.Movement), nil
}

// Move transfers stock between locations. Without an explicit batch the
// source location's batches are consumed in FEFO order; the transfer keeps
// each batch's expiry and received date so FEFO survives the move.
func (s *AllocationService) Move(ctx context.Context, cmd MoveStockCommand) (*MovementDTO, error) {
	if cmd.ProductID == "" {
		return nil, apperrors.ErrValidation("productId is required")
	}
	if cmd.FromLocation == "" || cmd.ToLocation == "" {
		return nil, apperrors.ErrValidation("fromLocation and toLocation are required")
	}
	if cmd.FromLocation == cmd.ToLocation {
		return nil, apperrors.ErrValidation("fromLocation and toLocation must differ")
	}
	if cmd.Quantity <= 0 {
		return nil, apperrors.ErrValidation("quantity must be positive")
	}

	txn, err := s.runTxn(ctx, func() (*domain.LedgerTxn, error) {
		sources, err := s.sourceCells(ctx, cmd.TenantID, cmd.WarehouseID, cmd.ProductID, cmd.FromLocation, cmd.BatchID)
		if err != nil {
			return nil, err
		}
		if totalAvailable(sources) < cmd.Quantity {
			return nil, apperrors.ErrInsufficientStock("insufficient available stock at " + cmd.FromLocation)
		}

		writes := make([]domain.CellWrite, 0, len(sources)*2)
		remaining := cmd.Quantity
		for _, src := range sources {
			if remaining == 0 {
				break
			}
			take := src.Available()
			if take == 0 {
				continue
			}
			if take > remaining {
				take = remaining
			}

			expected := src.Version
			if err := src.RemoveStock(take); err != nil {
				return nil, mapDomainError(err)
			}
			writes = append(writes, domain.CellWrite{Cell: src, ExpectedVersion: expected})

			dstKey := domain.CellKey{
				TenantID:    cmd.TenantID,
				WarehouseID: cmd.WarehouseID,
				ProductID:   cmd.ProductID,
				LocationID:  cmd.ToLocation,
				BatchID:     src.BatchID,
			}
			dst, err := s.ledger.FindCell(ctx, dstKey)
			if err != nil {
				return nil, err
			}
			if dst == nil {
				dst = domain.NewStockCell(dstKey, src.UOM, src.Expiry)
				dst.ReceivedAt = src.ReceivedAt
			}
			expectedDst := dst.Version
			if err := dst.AddStock(take); err != nil {
				return nil, mapDomainError(err)
			}
			writes = append(writes, domain.CellWrite{Cell: dst, ExpectedVersion: expectedDst})
			remaining -= take
		}

		movement, err := domain.NewMovementRecord(cmd.TenantID, cmd.WarehouseID, domain.MovementInternalTransfer, cmd.ProductID, cmd.Quantity)
		if err != nil {
			return nil, mapDomainError(err)
		}
		movement.WithLocations(cmd.FromLocation, cmd.ToLocation).
			WithBatch(cmd.BatchID).
			WithCorrelation(cmd.CorrelationID).
			WithActor(cmd.Actor).
			WithReason(cmd.Reason)

		return &domain.LedgerTxn{Writes: writes, Movement: movement}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterApply(ctx, cmd.TenantID, txn)
	return ToMovementDTO(txn.Movement), nil
}

// Reserve claims available stock at a location without moving it. A claim
// spanning several batch cells yields one reservation per cell.
func (s *AllocationService) Reserve(ctx context.Context, cmd ReserveStockCommand) (*ReserveResultDTO, error) {
	if cmd.ProductID == "" {
		return nil, apperrors.ErrValidation("productId is required")
	}
	if cmd.LocationID == "" {
		return nil, apperrors.ErrValidation("locationId is required")
	}
	if cmd.Quantity <= 0 {
		return nil, apperrors.ErrValidation("quantity must be positive")
	}

	txn, err := s.runTxn(ctx, func() (*domain.LedgerTxn, error) {
		sources, err := s.sourceCells(ctx, cmd.TenantID, cmd.WarehouseID, cmd.ProductID, cmd.LocationID, cmd.BatchID)
		if err != nil {
			return nil, err
		}
		if totalAvailable(sources) < cmd.Quantity {
			return nil, apperrors.ErrInsufficientStock("insufficient available stock at " + cmd.LocationID)
		}

		writes := make([]domain.CellWrite, 0, len(sources))
		reservations := make([]*domain.Reservation, 0, 1)
		remaining := cmd.Quantity
		for _, cell := range sources {
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

			expected := cell.Version
			if err := cell.Reserve(take); err != nil {
				return nil, mapDomainError(err)
			}
			writes = append(writes, domain.CellWrite{Cell: cell, ExpectedVersion: expected})

			reservation, err := domain.NewReservation(cell.Key(), take, cmd.CorrelationID)
			if err != nil {
				return nil, mapDomainError(err)
			}
			reservations = append(reservations, reservation)
			remaining -= take
		}

		movement, err := domain.NewMovementRecord(cmd.TenantID, cmd.WarehouseID, domain.MovementReserve, cmd.ProductID, cmd.Quantity)
		if err != nil {
			return nil, mapDomainError(err)
		}
		movement.WithLocations(cmd.LocationID, "").
			WithBatch(cmd.BatchID).
			WithCorrelation(cmd.CorrelationID).
			WithActor(cmd.Actor)

		return &domain.LedgerTxn{Writes: writes, Movement: movement, Reservations: reservations}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterApply(ctx, cmd.TenantID, txn)

	result := &ReserveResultDTO{
		Movement:     ToMovementDTO(txn.Movement),
		Reservations: make([]ReservationDTO, 0, len(txn.Reservations)),
	}
	for _, r := range txn.Reservations {
		result.Reservations = append(result.Reservations, ToReservationDTO(r))
	}
	return result, nil
}

// Commit converts a reservation into an outbound movement: onHand and
// reserved decrease together. A partial commit leaves the reservation
// active with the remainder.
func (s *AllocationService) Commit(ctx context.Context, cmd CommitPickCommand) (*MovementDTO, error) {
	if cmd.ReservationID == "" {
		return nil, apperrors.ErrValidation("reservationId is required")
	}
	if cmd.ActualQty <= 0 {
		return nil, apperrors.ErrValidation("actualQty must be positive")
	}

	txn, err := s.runTxn(ctx, func() (*domain.LedgerTxn, error) {
		reservation, err := s.reservations.FindByReservationID(ctx, cmd.TenantID, cmd.ReservationID)
		if err != nil {
			return nil, err
		}
		if reservation == nil {
			return nil, apperrors.ErrNotFoundWithID("reservation", cmd.ReservationID)
		}

		cell, err := s.ledger.FindCell(ctx, reservation.CellKey())
		if err != nil {
			return nil, err
		}
		if cell == nil {
			return nil, apperrors.ErrNotFoundWithID("stock cell for reservation", cmd.ReservationID)
		}

		if err := reservation.Commit(cmd.ActualQty); err != nil {
			return nil, mapDomainError(err)
		}
		expected := cell.Version
		if err := cell.CommitPick(cmd.ActualQty); err != nil {
			return nil, mapDomainError(err)
		}

		correlationID := cmd.CorrelationID
		if correlationID == "" {
			correlationID = reservation.CorrelationID
		}
		movement, err := domain.NewMovementRecord(cmd.TenantID, reservation.WarehouseID, domain.MovementCommit, reservation.ProductID, cmd.ActualQty)
		if err != nil {
			return nil, mapDomainError(err)
		}
		movement.WithLocations(reservation.LocationID, "").
			WithBatch(reservation.BatchID).
			WithCorrelation(correlationID).
			WithActor(cmd.Actor)

		return &domain.LedgerTxn{
			Writes:       []domain.CellWrite{{Cell: cell, ExpectedVersion: expected}},
			Movement:     movement,
			Reservations: []*domain.Reservation{reservation},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterApply(ctx, cmd.TenantID, txn)
	return ToMovementDTO(txn.Movement), nil
}

// Release resolves a reservation without stock movement, returning its
// unresolved remainder to available.
func (s *AllocationService) Release(ctx context.Context, cmd ReleaseReservationCommand) (*ReleaseResultDTO, error) {
	if cmd.ReservationID == "" {
		return nil, apperrors.ErrValidation("reservationId is required")
	}

	txn, err := s.runTxn(ctx, func() (*domain.LedgerTxn, error) {
		reservation, err := s.reservations.FindByReservationID(ctx, cmd.TenantID, cmd.ReservationID)
		if err != nil {
			return nil, err
		}
		if reservation == nil {
			return nil, apperrors.ErrNotFoundWithID("reservation", cmd.ReservationID)
		}

		remainder, err := reservation.Release()
		if err != nil {
			return nil, mapDomainError(err)
		}

		txn := &domain.LedgerTxn{Reservations: []*domain.Reservation{reservation}}
		if remainder == 0 {
			return txn, nil
		}

		cell, err := s.ledger.FindCell(ctx, reservation.CellKey())
		if err != nil {
			return nil, err
		}
		if cell == nil {
			return nil, apperrors.ErrNotFoundWithID("stock cell for reservation", cmd.ReservationID)
		}
		expected := cell.Version
		if err := cell.Release(remainder); err != nil {
			return nil, mapDomainError(err)
		}
		txn.Writes = []domain.CellWrite{{Cell: cell, ExpectedVersion: expected}}

		correlationID := cmd.CorrelationID
		if correlationID == "" {
			correlationID = reservation.CorrelationID
		}
		movement, err := domain.NewMovementRecord(cmd.TenantID, reservation.WarehouseID, domain.MovementRelease, reservation.ProductID, remainder)
		if err != nil {
			return nil, mapDomainError(err)
		}
		movement.WithLocations(reservation.LocationID, "").
			WithBatch(reservation.BatchID).
			WithCorrelation(correlationID).
			WithActor(cmd.Actor)
		txn.Movement = movement

		return txn, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterApply(ctx, cmd.TenantID, txn)

	result := &ReleaseResultDTO{Reservation: ToReservationDTO(txn.Reservations[0])}
	if txn.Movement != nil {
		result.Movement = ToMovementDTO(txn.Movement)
		result.ReleasedQty = txn.Movement.Quantity
	}
	return result, nil
}

// Adjust applies a signed correction, always recorded as ADJUST_INC or
// ADJUST_DEC so corrections stay distinguishable from operational moves.
func (s *AllocationService) Adjust(ctx context.Context, cmd AdjustStockCommand) (*MovementDTO, error) {
	if cmd.ProductID == "" {
		return nil, apperrors.ErrValidation("productId is required")
	}
	if cmd.LocationID == "" {
		return nil, apperrors.ErrValidation("locationId is required")
	}
	if cmd.Delta == 0 {
		return nil, apperrors.ErrValidation("delta must be non-zero")
	}
	if cmd.Reason == "" {
		return nil, apperrors.ErrValidation("reason is required")
	}

	movementType := domain.MovementAdjustInc
	quantity := cmd.Delta
	if cmd.Delta < 0 {
		movementType = domain.MovementAdjustDec
		quantity = -cmd.Delta
	}

	txn, err := s.runTxn(ctx, func() (*domain.LedgerTxn, error) {
		key := domain.CellKey{
			TenantID:    cmd.TenantID,
			WarehouseID: cmd.WarehouseID,
			ProductID:   cmd.ProductID,
			LocationID:  cmd.LocationID,
			BatchID:     cmd.BatchID,
		}
		cell, err := s.ledger.FindCell(ctx, key)
		if err != nil {
			return nil, err
		}
		if cell == nil {
			if cmd.Delta < 0 {
				return nil, apperrors.ErrNotFound("stock cell")
			}
			// Counting can find stock the ledger never knew about.
			cell = domain.NewStockCell(key, defaultUOM, nil)
		}
		expected := cell.Version
		if err := cell.Adjust(cmd.Delta); err != nil {
			return nil, mapDomainError(err)
		}

		movement, err := domain.NewMovementRecord(cmd.TenantID, cmd.WarehouseID, movementType, cmd.ProductID, quantity)
		if err != nil {
			return nil, mapDomainError(err)
		}
		if cmd.Delta > 0 {
			movement.WithLocations("", cmd.LocationID)
		} else {
			movement.WithLocations(cmd.LocationID, "")
		}
		movement.WithBatch(cmd.BatchID).
			WithCorrelation(cmd.CorrelationID).
			WithActor(cmd.Actor).
			WithReason(cmd.Reason)

		return &domain.LedgerTxn{
			Writes:   []domain.CellWrite{{Cell: cell, ExpectedVersion: expected}},
			Movement: movement,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterApply(ctx, cmd.TenantID, txn)
	return ToMovementDTO(txn.Movement), nil
}

// sourceCells resolves the ordered consumption candidates at a location:
// the single named batch cell, or all cells at the location in FEFO order.
func (s *AllocationService) sourceCells(ctx context.Context, tenantID, warehouseID, productID, locationID, batchID string) ([]*domain.StockCell, error) {
	if batchID != "" {
		cell, err := s.ledger.FindCell(ctx, domain.CellKey{
			TenantID:    tenantID,
			WarehouseID: warehouseID,
			ProductID:   productID,
			LocationID:  locationID,
			BatchID:     batchID,
		})
		if err != nil {
			return nil, err
		}
		if cell == nil {
			return nil, apperrors.ErrNotFound("stock cell")
		}
		return []*domain.StockCell{cell}, nil
	}

	cells, err := s.ledger.FindCellsAtLocation(ctx, tenantID, warehouseID, productID, locationID)
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return nil, apperrors.ErrNotFound("stock cell")
	}
	domain.SortCellsFEFO(cells)
	return cells, nil
}

// runTxn executes build and applies the resulting transaction, rebuilding
// from fresh reads after each version conflict up to the retry bound.
func (s *AllocationService) runTxn(ctx context.Context, build func() (*domain.LedgerTxn, error)) (*domain.LedgerTxn, error) {
	for attempt := 0; ; attempt++ {
		txn, err := build()
		if err != nil {
			return nil, err
		}

		err = s.ledger.Apply(ctx, *txn)
		if err == nil {
			return txn, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		if attempt >= s.maxRetries {
			if s.metrics != nil {
				s.metrics.RecordVersionConflict("exhausted")
			}
			logging.WithContext(ctx, s.logger).Warn("version conflict retries exhausted",
				slog.Int("attempts", attempt+1),
			)
			return nil, apperrors.ErrConflict("stock cell version conflict, retries exhausted")
		}
		if s.metrics != nil {
			s.metrics.RecordVersionConflict("retried")
		}
	}
}

// afterApply emits the movement event and metrics once a transaction is
// durable.
func (s *AllocationService) afterApply(ctx context.Context, tenantID string, txn *domain.LedgerTxn) {
	if txn.Movement == nil {
		return
	}
	if s.metrics != nil {
		s.metrics.RecordMovementApplied(string(txn.Movement.Type))
	}
	publishEvents(ctx, s.publisher, s.logger, tenantID, txn.Movement.MovementID, []domain.DomainEvent{
		&domain.MovementAppliedEvent{
			MovementID:    txn.Movement.MovementID,
			Type:          txn.Movement.Type,
			ProductID:     txn.Movement.ProductID,
			FromLocation:  txn.Movement.FromLocation,
			ToLocation:    txn.Movement.ToLocation,
			Quantity:      txn.Movement.Quantity,
			CorrelationID: txn.Movement.CorrelationID,
			AppliedAt:     txn.Movement.CreatedAt,
		},
	})
}

func totalAvailable(cells []*domain.StockCell) int {
	total := 0
	for _, c := range cells {
		total += c.Available()
	}
	return total
}

// mapDomainError translates domain sentinel errors into the API taxonomy.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrInsufficientReserved):
		return apperrors.ErrInsufficientStock(err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrMissingProduct),
		errors.Is(err, domain.ErrMissingLocation),
		errors.Is(err, domain.ErrCommitExceedsReserved),
		errors.Is(err, domain.ErrInvalidLocation),
		errors.Is(err, domain.ErrWaveEmpty),
		errors.Is(err, domain.ErrCycleCountEmpty):
		return apperrors.ErrValidation(err.Error())
	case errors.Is(err, domain.ErrVersionConflict):
		return apperrors.ErrConflict(err.Error())
	case errors.Is(err, domain.ErrCellNotFound):
		return apperrors.ErrNotFound("stock cell")
	case errors.Is(err, domain.ErrReservationNotActive),
		errors.Is(err, domain.ErrWaveNotPlanned),
		errors.Is(err, domain.ErrWaveNotReleased),
		errors.Is(err, domain.ErrWaveClosed),
		errors.Is(err, domain.ErrWaveHasCommits),
		errors.Is(err, domain.ErrTaskAlreadyHandled),
		errors.Is(err, domain.ErrSuggestionRejected),
		errors.Is(err, domain.ErrSuggestionExecuted),
		errors.Is(err, domain.ErrCycleCountReviewed),
		errors.Is(err, domain.ErrCycleCountNotReady):
		return apperrors.ErrInvalidStateTransition(err.Error())
	case errors.Is(err, domain.ErrTaskNotFound):
		return apperrors.ErrNotFound("pick task")
	case errors.Is(err, domain.ErrCountLineNotFound):
		return apperrors.ErrNotFound("count line")
	default:
		return err
	}
}
