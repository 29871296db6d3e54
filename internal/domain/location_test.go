package domain

import (
	"errors"
	"testing"
)

func TestNewLocation(t *testing.T) {
	tests := []struct {
		name        string
		locationID  string
		expectError bool
		zone        string
		aisle       int
		rack        int
		level       int
	}{
		{name: "valid", locationID: "A-01-R05-L02", zone: "A", aisle: 1, rack: 5, level: 2},
		{name: "two letter zone", locationID: "AB-12-R99-L01", zone: "AB", aisle: 12, rack: 99, level: 1},
		{name: "empty", locationID: "", expectError: true},
		{name: "missing rack prefix", locationID: "A-01-05-L02", expectError: true},
		{name: "rack zero", locationID: "A-01-R00-L02", expectError: true},
		{name: "level zero", locationID: "A-01-R05-L00", expectError: true},
		{name: "lowercase zone", locationID: "a-01-R05-L02", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := NewLocation(tt.locationID)
			if tt.expectError {
				if !errors.Is(err, ErrInvalidLocation) {
					t.Errorf("expected ErrInvalidLocation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if loc.Zone() != tt.zone || loc.Aisle() != tt.aisle || loc.Rack() != tt.rack || loc.Level() != tt.level {
				t.Errorf("parsed %s/%d/%d/%d, expected %s/%d/%d/%d",
					loc.Zone(), loc.Aisle(), loc.Rack(), loc.Level(),
					tt.zone, tt.aisle, tt.rack, tt.level)
			}
		})
	}
}

func TestParseLocationOrSimple(t *testing.T) {
	loc := ParseLocationOrSimple("DOCK-1")
	if loc.LocationID() != "DOCK-1" {
		t.Errorf("expected DOCK-1, got %s", loc.LocationID())
	}
	if loc.Zone() != "D" {
		t.Errorf("expected zone D, got %s", loc.Zone())
	}
	if loc.Aisle() != 0 || loc.Rack() != 0 {
		t.Errorf("expected structural zeros for simple code")
	}
}

func TestLocation_GoldenZoneFit(t *testing.T) {
	ground, _ := NewLocation("A-01-R01-L01")
	high, _ := NewLocation("A-01-R01-L05")
	deep, _ := NewLocation("A-01-R20-L01")

	if ground.GoldenZoneFit() != 1.0 {
		t.Errorf("expected fit 1.0 for front ground slot, got %f", ground.GoldenZoneFit())
	}
	if high.GoldenZoneFit() >= ground.GoldenZoneFit() {
		t.Errorf("high level should score below ground level")
	}
	if deep.GoldenZoneFit() >= ground.GoldenZoneFit() {
		t.Errorf("deep rack should score below front rack")
	}

	simple := ParseLocationOrSimple("STAGE-1")
	if simple.GoldenZoneFit() != 0.5 {
		t.Errorf("expected neutral fit 0.5 for simple code, got %f", simple.GoldenZoneFit())
	}
}

func TestLocation_SerpentineTraversal(t *testing.T) {
	// Odd aisles walk racks descending, even aisles ascending.
	a1r1, _ := NewLocation("A-01-R01-L01")
	a1r9, _ := NewLocation("A-01-R09-L01")
	a2r1, _ := NewLocation("A-02-R01-L01")
	a2r9, _ := NewLocation("A-02-R09-L01")
	b1r1, _ := NewLocation("B-01-R01-L01")

	if !a1r9.LessByTraversal(a1r1) {
		t.Errorf("in aisle 01 rack 09 should come before rack 01")
	}
	if !a2r1.LessByTraversal(a2r9) {
		t.Errorf("in aisle 02 rack 01 should come before rack 09")
	}
	if !a1r1.LessByTraversal(a2r1) {
		t.Errorf("aisle 01 should come before aisle 02")
	}
	if !a2r9.LessByTraversal(b1r1) {
		t.Errorf("zone A should come before zone B")
	}
}
