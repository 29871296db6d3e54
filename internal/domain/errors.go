package domain

import "errors"

// Errors shared across the inventory operations domain. The application
// layer maps these onto the API error taxonomy.
var (
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInsufficientStock    = errors.New("insufficient available stock")
	ErrInsufficientReserved = errors.New("insufficient reserved quantity")
	ErrVersionConflict      = errors.New("stock cell version conflict")
	ErrCellNotFound         = errors.New("stock cell not found")
	ErrMissingProduct       = errors.New("productId is required")
	ErrMissingLocation      = errors.New("locationId is required")
)
