package application

import (
	"github.com/wms-platform/inventory-ops-service/internal/domain"
)

// ToStockCellDTO converts a domain stock cell to its DTO
func ToStockCellDTO(cell *domain.StockCell) StockCellDTO {
	return StockCellDTO{
		ProductID:    cell.ProductID,
		LocationID:   cell.LocationID,
		BatchID:      cell.BatchID,
		OnHandQty:    cell.OnHandQty,
		ReservedQty:  cell.ReservedQty,
		AvailableQty: cell.Available(),
		DamagedQty:   cell.DamagedQty,
		UOM:          cell.UOM,
		Expiry:       cell.Expiry,
		ReceivedAt:   cell.ReceivedAt,
		Version:      cell.Version,
	}
}

// ToMovementDTO converts a movement record to its DTO
func ToMovementDTO(m *domain.MovementRecord) *MovementDTO {
	return &MovementDTO{
		MovementID:    m.MovementID,
		Type:          string(m.Type),
		ProductID:     m.ProductID,
		FromLocation:  m.FromLocation,
		ToLocation:    m.ToLocation,
		BatchID:       m.BatchID,
		Quantity:      m.Quantity,
		Reason:        m.Reason,
		Actor:         m.Actor,
		CorrelationID: m.CorrelationID,
		CreatedAt:     m.CreatedAt,
	}
}

// ToReservationDTO converts a reservation to its DTO
func ToReservationDTO(r *domain.Reservation) ReservationDTO {
	return ReservationDTO{
		ReservationID: r.ReservationID,
		ProductID:     r.ProductID,
		LocationID:    r.LocationID,
		BatchID:       r.BatchID,
		Quantity:      r.Quantity,
		CommittedQty:  r.CommittedQty,
		Status:        string(r.Status),
		CorrelationID: r.CorrelationID,
	}
}

// ToWaveDTO converts a wave aggregate to its DTO
func ToWaveDTO(w *domain.Wave) *WaveDTO {
	stops := make([]PickStopDTO, 0, len(w.Stops))
	for _, s := range w.Stops {
		stops = append(stops, PickStopDTO{
			Sequence:      s.Sequence,
			TaskID:        s.TaskID,
			OrderID:       s.OrderID,
			ProductID:     s.ProductID,
			LocationID:    s.LocationID,
			BatchID:       s.BatchID,
			Quantity:      s.Quantity,
			ReservationID: s.ReservationID,
			Status:        string(s.Status),
			PickedQty:     s.PickedQty,
		})
	}
	return &WaveDTO{
		WaveID:      w.WaveID,
		WarehouseID: w.WarehouseID,
		PickerID:    w.PickerID,
		OrderIDs:    w.OrderIDs,
		Status:      string(w.Status),
		Stops:       stops,
		CreatedAt:   w.CreatedAt,
		PlannedAt:   w.PlannedAt,
		ReleasedAt:  w.ReleasedAt,
		CompletedAt: w.CompletedAt,
	}
}

// ToSuggestionDTO converts a replenishment suggestion to its DTO
func ToSuggestionDTO(s *domain.ReplenishmentSuggestion) *SuggestionDTO {
	return &SuggestionDTO{
		SuggestionID:        s.SuggestionID,
		SKU:                 s.SKU,
		SourceLocation:      s.SourceLocation,
		DestinationLocation: s.DestinationLocation,
		SourceBatchID:       s.SourceBatchID,
		SuggestedQty:        s.SuggestedQty,
		Status:              string(s.Status),
		PolicyMin:           s.Policy.Min,
		PolicyMax:           s.Policy.Max,
		CreatedAt:           s.CreatedAt,
		ExecutedAt:          s.ExecutedAt,
	}
}

// ToRecommendationDTO converts a slotting recommendation to its DTO
func ToRecommendationDTO(r *domain.SlottingRecommendation) *RecommendationDTO {
	return &RecommendationDTO{
		RecommendationID:    r.RecommendationID,
		SKU:                 r.SKU,
		CurrentLocation:     r.CurrentLocation,
		RecommendedLocation: r.RecommendedLocation,
		Score:               r.Score,
		CurrentScore:        r.CurrentScore,
		ABCClass:            string(r.ABCClass),
		XYZClass:            string(r.XYZClass),
		Status:              string(r.Status),
		CreatedAt:           r.CreatedAt,
		ExecutedAt:          r.ExecutedAt,
	}
}

// ToCycleCountDTO converts a counting task to its DTO
func ToCycleCountDTO(t *domain.CycleCountTask) *CycleCountDTO {
	lines := make([]CycleCountLineDTO, 0, len(t.Lines))
	for _, l := range t.Lines {
		lines = append(lines, CycleCountLineDTO{
			LocationID:  l.LocationID,
			SKU:         l.SKU,
			BatchID:     l.BatchID,
			Theoretical: l.Theoretical,
			Counted:     l.Counted,
		})
	}
	return &CycleCountDTO{
		TaskID:      t.TaskID,
		WarehouseID: t.WarehouseID,
		Status:      string(t.Status),
		Lines:       lines,
		Approved:    t.Approved,
		CreatedAt:   t.CreatedAt,
		CountedAt:   t.CountedAt,
		ReviewedAt:  t.ReviewedAt,
	}
}

// ToPolicyDTO converts a replenishment policy to its DTO
func ToPolicyDTO(p domain.ReplenishmentPolicy) PolicyDTO {
	return PolicyDTO{
		SKU:         p.SKU,
		LocationID:  p.LocationID,
		Min:         p.Min,
		Max:         p.Max,
		SafetyStock: p.SafetyStock,
		Strategy:    p.Strategy,
	}
}
