package domain

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CellKey identifies a stock cell: one (tenant, warehouse, product,
// location, batch) combination. BatchID is empty for non-batch-managed
// stock.
type CellKey struct {
	TenantID    string
	WarehouseID string
	ProductID   string
	LocationID  string
	BatchID     string
}

// StockCell is the authoritative on-hand record for one cell key. Every
// mutation goes through the allocation engine and is saved with a
// compare-and-swap on Version; availableQty is always derived, never stored.
type StockCell struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	TenantID    string             `bson:"tenantId" json:"tenantId"`
	WarehouseID string             `bson:"warehouseId" json:"warehouseId"`
	ProductID   string             `bson:"productId" json:"productId"`
	LocationID  string             `bson:"locationId" json:"locationId"`
	// BatchID is stored even when empty so cell-key filters match exactly.
	BatchID string `bson:"batchId" json:"batchId,omitempty"`

	OnHandQty   int    `bson:"onHandQty" json:"onHandQty"`
	ReservedQty int    `bson:"reservedQty" json:"reservedQty"`
	DamagedQty  int    `bson:"damagedQty" json:"damagedQty"`
	UOM         string `bson:"uom" json:"uom"`

	Expiry         *time.Time `bson:"expiry,omitempty" json:"expiry,omitempty"`
	ReceivedAt     time.Time  `bson:"receivedAt" json:"receivedAt"`
	LastMovementAt time.Time  `bson:"lastMovementAt" json:"lastMovementAt"`

	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewStockCell creates an empty cell for the given key
func NewStockCell(key CellKey, uom string, expiry *time.Time) *StockCell {
	now := time.Now().UTC()
	return &StockCell{
		TenantID:    key.TenantID,
		WarehouseID: key.WarehouseID,
		ProductID:   key.ProductID,
		LocationID:  key.LocationID,
		BatchID:     key.BatchID,
		UOM:         uom,
		Expiry:      expiry,
		ReceivedAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Key returns the cell's identifying key
func (c *StockCell) Key() CellKey {
	return CellKey{
		TenantID:    c.TenantID,
		WarehouseID: c.WarehouseID,
		ProductID:   c.ProductID,
		LocationID:  c.LocationID,
		BatchID:     c.BatchID,
	}
}

// Available returns onHand minus reserved; derived, never persisted
func (c *StockCell) Available() int {
	return c.OnHandQty - c.ReservedQty
}

// AddStock increases on-hand quantity (receive, move destination, ADJUST_INC)
func (c *StockCell) AddStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	c.OnHandQty += quantity
	c.touch()
	return nil
}

// RemoveStock decreases on-hand quantity from the available portion (move
// source, ADJUST_DEC). Reserved stock is untouchable here: the invariant
// reservedQty <= onHandQty must hold after every mutation.
func (c *StockCell) RemoveStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if c.Available() < quantity {
		return ErrInsufficientStock
	}
	c.OnHandQty -= quantity
	c.touch()
	return nil
}

// Reserve claims available stock without moving it
func (c *StockCell) Reserve(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if c.Available() < quantity {
		return ErrInsufficientStock
	}
	c.ReservedQty += quantity
	c.touch()
	return nil
}

// Release returns reserved stock to available
func (c *StockCell) Release(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if c.ReservedQty < quantity {
		return ErrInsufficientReserved
	}
	c.ReservedQty -= quantity
	c.touch()
	return nil
}

// CommitPick converts reserved stock into an outbound movement: onHand and
// reserved decrease together.
func (c *StockCell) CommitPick(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if c.ReservedQty < quantity {
		return ErrInsufficientReserved
	}
	c.OnHandQty -= quantity
	c.ReservedQty -= quantity
	c.touch()
	return nil
}

// Adjust applies a signed correction. Negative deltas come out of the
// available portion; they are rejected rather than clamped when stock is
// short.
func (c *StockCell) Adjust(delta int) error {
	if delta == 0 {
		return ErrInvalidQuantity
	}
	if delta > 0 {
		return c.AddStock(delta)
	}
	return c.RemoveStock(-delta)
}

// IsEmpty reports whether the cell holds nothing and claims nothing
func (c *StockCell) IsEmpty() bool {
	return c.OnHandQty == 0 && c.ReservedQty == 0 && c.DamagedQty == 0
}

func (c *StockCell) touch() {
	now := time.Now().UTC()
	c.LastMovementAt = now
	c.UpdatedAt = now
}

// SortCellsFEFO orders cells for consumption: earliest non-nil expiry first,
// expiry-less batches after all dated ones, first-received breaking ties
// (FEFO with FIFO tiebreak). Location and batch codes make the order total.
func SortCellsFEFO(cells []*StockCell) {
	sort.SliceStable(cells, func(i, j int) bool {
		a, b := cells[i], cells[j]
		switch {
		case a.Expiry != nil && b.Expiry == nil:
			return true
		case a.Expiry == nil && b.Expiry != nil:
			return false
		case a.Expiry != nil && b.Expiry != nil && !a.Expiry.Equal(*b.Expiry):
			return a.Expiry.Before(*b.Expiry)
		}
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			return a.ReceivedAt.Before(b.ReceivedAt)
		}
		if a.LocationID != b.LocationID {
			return a.LocationID < b.LocationID
		}
		return a.BatchID < b.BatchID
	})
}
