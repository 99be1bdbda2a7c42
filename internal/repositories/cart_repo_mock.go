package repositories

import (
	"fmt"
	"sync"

	"cuahang/internal/models"

	"github.com/google/uuid"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	carts map[string]models.Cart // keyed by cart ID
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string]models.Cart),
	}
}

// GetByUser returns the cart owned by the given user.
func (r *MockCartRepository) GetByUser(userID string) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cart := range r.carts {
		if cart.UserID == userID {
			c := cart
			return &c, nil
		}
	}
	return nil, fmt.Errorf("cart for user %s: %w", userID, ErrNotFound)
}

// Save stores the cart, assigning IDs where missing.
func (r *MockCartRepository) Save(cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	for i := range cart.Items {
		if cart.Items[i].ID == "" {
			cart.Items[i].ID = uuid.New().String()
		}
		cart.Items[i].CartID = cart.ID
	}
	r.carts[cart.ID] = *cart
	return nil
}

// Clear empties the cart's items and zeroes its total.
func (r *MockCartRepository) Clear(cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[cartID]
	if !ok {
		return fmt.Errorf("cart %s: %w", cartID, ErrNotFound)
	}
	cart.Items = nil
	cart.TotalPrice = 0
	r.carts[cartID] = cart
	return nil
}
