package repositories

import (
	"cuahang/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	// AdjustInventory applies stock and sold deltas in one atomic update.
	// A negative stockDelta is conditional: the update is rejected with
	// ErrStockConflict instead of driving stock below zero. Called with
	// (-qty, +qty) when an order commits an item and (+qty, -qty) when a
	// cancellation returns it.
	AdjustInventory(id string, stockDelta, soldDelta int) error
}
