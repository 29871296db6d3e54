package domain

import (
	"testing"
)

func TestReservation_CommitAndRelease(t *testing.T) {
	t.Run("full commit resolves the reservation", func(t *testing.T) {
		r, err := NewReservation(testCellKey("B1"), 30, "ORD-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Status != ReservationStatusActive {
			t.Fatalf("expected ACTIVE, got %s", r.Status)
		}

		if err := r.Commit(30); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Status != ReservationStatusCommitted {
			t.Errorf("expected COMMITTED, got %s", r.Status)
		}
		if err := r.Commit(1); err != ErrReservationNotActive {
			t.Errorf("expected ErrReservationNotActive, got %v", err)
		}
	})

	t.Run("commit never exceeds reserved", func(t *testing.T) {
		r, _ := NewReservation(testCellKey(""), 30, "ORD-1")
		if err := r.Commit(31); err != ErrCommitExceedsReserved {
			t.Errorf("expected ErrCommitExceedsReserved, got %v", err)
		}
		if err := r.Commit(20); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := r.Commit(11); err != ErrCommitExceedsReserved {
			t.Errorf("expected ErrCommitExceedsReserved, got %v", err)
		}
	})

	t.Run("release after partial commit returns the remainder", func(t *testing.T) {
		r, _ := NewReservation(testCellKey(""), 30, "ORD-1")
		if err := r.Commit(20); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		remainder, err := r.Release()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if remainder != 10 {
			t.Errorf("expected remainder 10, got %d", remainder)
		}
		// A partially committed reservation ends life as COMMITTED, not
		// RELEASED, so the audit trail keeps the pick visible.
		if r.Status != ReservationStatusCommitted {
			t.Errorf("expected COMMITTED, got %s", r.Status)
		}
	})

	t.Run("release without commits", func(t *testing.T) {
		r, _ := NewReservation(testCellKey(""), 30, "ORD-1")
		remainder, err := r.Release()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if remainder != 30 {
			t.Errorf("expected remainder 30, got %d", remainder)
		}
		if r.Status != ReservationStatusReleased {
			t.Errorf("expected RELEASED, got %s", r.Status)
		}
		if _, err := r.Release(); err != ErrReservationNotActive {
			t.Errorf("expected ErrReservationNotActive, got %v", err)
		}
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		if _, err := NewReservation(testCellKey(""), 0, "ORD-1"); err != ErrInvalidQuantity {
			t.Errorf("expected ErrInvalidQuantity, got %v", err)
		}
	})
}

func TestNewMovementRecord(t *testing.T) {
	movement, err := NewMovementRecord("tenant-001", "wh-01", MovementReceive, "SKU-001", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	movement.WithLocations("", "A-01-R01-L01").
		WithBatch("B1").
		WithCorrelation("PO-001").
		WithActor("user-1").
		WithReason("inbound receipt")

	if movement.ToLocation != "A-01-R01-L01" || movement.BatchID != "B1" ||
		movement.CorrelationID != "PO-001" || movement.Actor != "user-1" {
		t.Errorf("builder did not set fields: %+v", movement)
	}

	if _, err := NewMovementRecord("tenant-001", "wh-01", "TELEPORT", "SKU-001", 1); err == nil {
		t.Errorf("expected error for unknown movement type")
	}
	if _, err := NewMovementRecord("tenant-001", "wh-01", MovementReceive, "", 1); err != ErrMissingProduct {
		t.Errorf("expected ErrMissingProduct, got %v", err)
	}
	if _, err := NewMovementRecord("tenant-001", "wh-01", MovementReceive, "SKU-001", 0); err != ErrInvalidQuantity {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
}
