package repositories

import (
	"cuahang/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetAllByUser(userID string) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	Update(order *models.Order) error
	Delete(id string) error
	// ExistsByOrderNumber supports the one-retry collision policy during
	// order creation. The check is not atomic with the insert; the unique
	// index on order_number is the backstop.
	ExistsByOrderNumber(orderNumber string) (bool, error)
}
