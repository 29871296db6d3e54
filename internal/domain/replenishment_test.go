package domain

import (
	"testing"
)

func validPolicy() ReplenishmentPolicy {
	return ReplenishmentPolicy{
		TenantID:    "tenant-001",
		WarehouseID: "wh-01",
		SKU:         "SKU-001",
		LocationID:  "A-01-R01-L01",
		Min:         20,
		Max:         100,
		SafetyStock: 5,
		Strategy:    "MIN_MAX",
	}
}

func TestReplenishmentPolicy_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ReplenishmentPolicy)
		expectError bool
	}{
		{name: "valid", mutate: func(p *ReplenishmentPolicy) {}},
		{name: "missing sku", mutate: func(p *ReplenishmentPolicy) { p.SKU = "" }, expectError: true},
		{name: "missing location", mutate: func(p *ReplenishmentPolicy) { p.LocationID = "" }, expectError: true},
		{name: "negative min", mutate: func(p *ReplenishmentPolicy) { p.Min = -1 }, expectError: true},
		{name: "zero max", mutate: func(p *ReplenishmentPolicy) { p.Max = 0 }, expectError: true},
		{name: "max below min", mutate: func(p *ReplenishmentPolicy) { p.Min = 50; p.Max = 40 }, expectError: true},
		{name: "min zero is allowed", mutate: func(p *ReplenishmentPolicy) { p.Min = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := validPolicy()
			tt.mutate(&policy)
			err := policy.Validate()
			if tt.expectError && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewReplenishmentSuggestion(t *testing.T) {
	policy := validPolicy()

	s, err := NewReplenishmentSuggestion(policy, "BULK-01", "B1", 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Status != SuggestionStatusPending {
		t.Errorf("expected PENDING, got %s", s.Status)
	}
	if s.DestinationLocation != policy.LocationID {
		t.Errorf("expected destination %s, got %s", policy.LocationID, s.DestinationLocation)
	}
	if s.Policy.Max != 100 {
		t.Errorf("expected policy snapshot frozen onto the suggestion")
	}
	if len(s.DomainEvents) != 1 {
		t.Errorf("expected a created event, got %d events", len(s.DomainEvents))
	}

	if _, err := NewReplenishmentSuggestion(policy, "", "", 80); err != ErrMissingLocation {
		t.Errorf("expected ErrMissingLocation, got %v", err)
	}
	if _, err := NewReplenishmentSuggestion(policy, "BULK-01", "", 0); err != ErrInvalidQuantity {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestReplenishmentSuggestion_Lifecycle(t *testing.T) {
	t.Run("execute straight from pending", func(t *testing.T) {
		s, err := NewReplenishmentSuggestion(validPolicy(), "BULK-01", "", 80)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.MarkExecuted(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Status != SuggestionStatusExecuted {
			t.Errorf("expected EXECUTED, got %s", s.Status)
		}
		if s.ExecutedAt == nil {
			t.Errorf("expected executedAt set")
		}
		if err := s.MarkExecuted(); err != ErrSuggestionExecuted {
			t.Errorf("expected ErrSuggestionExecuted, got %v", err)
		}
	})

	t.Run("approve is idempotent", func(t *testing.T) {
		s, err := NewReplenishmentSuggestion(validPolicy(), "BULK-01", "", 80)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.Approve(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.Approve(); err != nil {
			t.Fatalf("re-approve should be a no-op, got %v", err)
		}
		if err := s.MarkExecuted(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("rejected suggestions never execute", func(t *testing.T) {
		s, err := NewReplenishmentSuggestion(validPolicy(), "BULK-01", "", 80)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.Reject(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.MarkExecuted(); err != ErrSuggestionRejected {
			t.Errorf("expected ErrSuggestionRejected, got %v", err)
		}
		if err := s.Approve(); err != ErrSuggestionRejected {
			t.Errorf("expected ErrSuggestionRejected, got %v", err)
		}
	})
}
