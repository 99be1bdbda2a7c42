package repositories

import (
	"errors"
	"fmt"

	"cuahang/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetByUser retrieves the cart belonging to one user, with product
// details resolved on each item.
func (r *GORMCartRepository) GetByUser(userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.Preload("Items.Product").First(&cart, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}
	return &cart, nil
}

// Save persists the cart and its items, replacing any removed lines.
func (r *GORMCartRepository) Save(cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	for i := range cart.Items {
		if cart.Items[i].ID == "" {
			cart.Items[i].ID = uuid.New().String()
		}
		cart.Items[i].CartID = cart.ID
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to replace cart items: %w", err)
		}
		if err := tx.Save(cart).Error; err != nil {
			return fmt.Errorf("failed to save cart: %w", err)
		}
		return nil
	})
}

// Clear empties the cart after a successful checkout.
func (r *GORMCartRepository) Clear(cartID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart items: %w", err)
		}
		res := tx.Model(&models.Cart{}).Where("id = ?", cartID).Update("total_price", 0)
		if res.Error != nil {
			return fmt.Errorf("failed to reset cart total: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("cart %s: %w", cartID, ErrNotFound)
		}
		return nil
	})
}
