package services

import (
	"errors"
	"fmt"

	"cuahang/internal/models"
	"cuahang/internal/repositories"
)

// CartService manages the per-user cart that checkout later converts into
// an order.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the user's cart, or an empty one if none exists yet.
func (s *CartService) GetCart(userID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &models.Cart{UserID: userID}, nil
		}
		return nil, err
	}
	return cart, nil
}

// AddItem puts a product into the cart or bumps the quantity of an
// existing identical line. The unit price is copied from the catalog at
// this moment.
func (s *CartService) AddItem(userID, productID string, quantity int, variant models.Variant) (*models.Cart, error) {
	if quantity < 1 {
		return nil, NewValidationError("quantity", "must be at least 1")
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if variant.Color != "" && !product.HasColor(variant.Color) {
		return nil, &PreconditionError{ProductName: product.Name, Reason: fmt.Sprintf("color %q is not offered", variant.Color)}
	}
	if variant.Size != "" && !product.HasSize(variant.Size) {
		return nil, &PreconditionError{ProductName: product.Name, Reason: fmt.Sprintf("size %q is not offered", variant.Size)}
	}

	cart, err := s.GetCart(userID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID && cart.Items[i].Variant == variant {
			cart.Items[i].Quantity += quantity
			cart.Items[i].Price = product.Price
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			Price:     product.Price,
			Variant:   variant,
		})
	}

	for _, line := range cart.Items {
		if line.ProductID == productID && product.Stock < line.Quantity {
			return nil, &PreconditionError{
				ProductName: product.Name,
				Reason:      fmt.Sprintf("only %d left in stock, %d requested", product.Stock, line.Quantity),
			}
		}
	}

	cart.RecalculateTotal()
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

// UpdateItem changes the quantity of a cart line. A quantity of zero
// removes the line.
func (s *CartService) UpdateItem(userID, itemID string, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, NewValidationError("quantity", "must not be negative")
	}

	cart, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("cart item %s: %w", itemID, repositories.ErrNotFound)
	}

	if quantity == 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		product, err := s.productRepo.GetByID(cart.Items[idx].ProductID)
		if err != nil {
			return nil, err
		}
		if product.Stock < quantity {
			return nil, &PreconditionError{
				ProductName: product.Name,
				Reason:      fmt.Sprintf("only %d left in stock, %d requested", product.Stock, quantity),
			}
		}
		cart.Items[idx].Quantity = quantity
		cart.Items[idx].Price = product.Price
	}

	cart.RecalculateTotal()
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

// RemoveItem deletes a line from the cart.
func (s *CartService) RemoveItem(userID, itemID string) (*models.Cart, error) {
	return s.UpdateItem(userID, itemID, 0)
}
