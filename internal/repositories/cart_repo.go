package repositories

import (
	"cuahang/internal/models"
)

// CartRepository defines the interface for cart data access. Each user
// owns at most one cart.
type CartRepository interface {
	GetByUser(userID string) (*models.Cart, error)
	Save(cart *models.Cart) error
	// Clear empties the cart's items and zeroes its total, which is how a
	// successful checkout leaves the cart behind.
	Clear(cartID string) error
}
