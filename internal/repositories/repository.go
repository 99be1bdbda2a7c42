package repositories

import "errors"

// Sentinel errors shared by all repository implementations so that
// services and handlers can classify failures without matching strings.
var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrStockConflict is returned when a conditional inventory decrement
	// would drive a product's stock negative.
	ErrStockConflict = errors.New("insufficient stock for adjustment")
)
