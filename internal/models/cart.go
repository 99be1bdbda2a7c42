package models

import "gorm.io/gorm"

// CartItem is one product line in a user's cart. Price is refreshed from
// the catalog whenever the item is added or its quantity changes.
type CartItem struct {
	ID        string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CartID    string  `json:"-" gorm:"type:varchar(36);index"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36)" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,gte=1"`
	Price     float64 `json:"price"`
	Variant   Variant `json:"variant" gorm:"embedded;embeddedPrefix:variant_"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID;references:ID"`
}

// Cart is the transient pre-order state for one user. Checkout empties it.
type Cart struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string     `json:"user_id" gorm:"uniqueIndex;type:varchar(36)"`
	Items      []CartItem `json:"items" gorm:"foreignKey:CartID"`
	TotalPrice float64    `json:"total_price"`
	gorm.Model `json:"-"`
}

// RecalculateTotal recomputes TotalPrice from the item lines.
func (c *Cart) RecalculateTotal() {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	c.TotalPrice = total
}
