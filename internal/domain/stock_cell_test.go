package domain

import (
	"testing"
	"time"
)

func testCellKey(batchID string) CellKey {
	return CellKey{
		TenantID:    "tenant-001",
		WarehouseID: "wh-01",
		ProductID:   "SKU-001",
		LocationID:  "A-01-R01-L01",
		BatchID:     batchID,
	}
}

func TestStockCell_AddRemove(t *testing.T) {
	cell := NewStockCell(testCellKey(""), "EA", nil)

	if err := cell.AddStock(100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cell.OnHandQty != 100 {
		t.Errorf("expected onHand 100, got %d", cell.OnHandQty)
	}
	if cell.Available() != 100 {
		t.Errorf("expected available 100, got %d", cell.Available())
	}

	if err := cell.AddStock(0); err != ErrInvalidQuantity {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
	if err := cell.AddStock(-5); err != ErrInvalidQuantity {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}

	if err := cell.RemoveStock(40); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cell.OnHandQty != 60 {
		t.Errorf("expected onHand 60, got %d", cell.OnHandQty)
	}
	if err := cell.RemoveStock(61); err != ErrInsufficientStock {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestStockCell_ReserveProtectsStock(t *testing.T) {
	cell := NewStockCell(testCellKey(""), "EA", nil)
	if err := cell.AddStock(100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := cell.Reserve(30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cell.Available() != 70 {
		t.Errorf("expected available 70, got %d", cell.Available())
	}

	// Reserved stock is untouchable by RemoveStock.
	if err := cell.RemoveStock(80); err != ErrInsufficientStock {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
	if err := cell.Reserve(71); err != ErrInsufficientStock {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}

	if err := cell.Release(10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cell.ReservedQty != 20 {
		t.Errorf("expected reserved 20, got %d", cell.ReservedQty)
	}
	if err := cell.Release(21); err != ErrInsufficientReserved {
		t.Errorf("expected ErrInsufficientReserved, got %v", err)
	}
}

func TestStockCell_CommitPick(t *testing.T) {
	cell := NewStockCell(testCellKey(""), "EA", nil)
	if err := cell.AddStock(100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cell.Reserve(30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := cell.CommitPick(30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cell.OnHandQty != 70 {
		t.Errorf("expected onHand 70, got %d", cell.OnHandQty)
	}
	if cell.ReservedQty != 0 {
		t.Errorf("expected reserved 0, got %d", cell.ReservedQty)
	}
	if cell.Available() != 70 {
		t.Errorf("expected available 70, got %d", cell.Available())
	}

	if err := cell.CommitPick(1); err != ErrInsufficientReserved {
		t.Errorf("expected ErrInsufficientReserved, got %v", err)
	}
}

func TestStockCell_Adjust(t *testing.T) {
	cell := NewStockCell(testCellKey(""), "EA", nil)
	if err := cell.AddStock(50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := cell.Adjust(0); err != ErrInvalidQuantity {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
	if err := cell.Adjust(10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cell.OnHandQty != 60 {
		t.Errorf("expected onHand 60, got %d", cell.OnHandQty)
	}

	// Negative adjustments are rejected, not clamped.
	if err := cell.Adjust(-61); err != ErrInsufficientStock {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
	if err := cell.Adjust(-60); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cell.IsEmpty() {
		t.Errorf("expected empty cell, got onHand=%d reserved=%d", cell.OnHandQty, cell.ReservedQty)
	}
}

func TestSortCellsFEFO(t *testing.T) {
	day := 24 * time.Hour
	now := time.Now().UTC()
	early := now.Add(7 * day)
	late := now.Add(30 * day)

	mkCell := func(batchID string, expiry *time.Time, receivedAt time.Time) *StockCell {
		cell := NewStockCell(testCellKey(batchID), "EA", expiry)
		cell.ReceivedAt = receivedAt
		return cell
	}

	cells := []*StockCell{
		mkCell("B-NODATE", nil, now.Add(-10*day)),
		mkCell("B-LATE", &late, now.Add(-1*day)),
		mkCell("B-EARLY", &early, now),
		mkCell("B-TIE-2", &early, now.Add(-2*day)),
	}

	SortCellsFEFO(cells)

	got := make([]string, 0, len(cells))
	for _, c := range cells {
		got = append(got, c.BatchID)
	}
	want := []string{"B-TIE-2", "B-EARLY", "B-LATE", "B-NODATE"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}
