package models

import "gorm.io/gorm"

// Product represents a catalog product. The order core only ever touches
// Stock and Sold, and only through ProductRepository.AdjustInventory.
type Product struct {
	ID          string   `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string   `json:"name" validate:"required,min=3,max=100"`
	Slug        string   `json:"slug" gorm:"index;type:varchar(120)"`
	Description string   `json:"description" validate:"omitempty,max=500"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Sold        int      `json:"sold" validate:"gte=0"`
	Colors      []string `json:"colors" gorm:"serializer:json"`
	Sizes       []string `json:"sizes" gorm:"serializer:json"`
	gorm.Model  `json:"-"`
}

// HasColor reports whether color is offered. An empty color set means the
// product has no color variants, so any request passes.
func (p *Product) HasColor(color string) bool {
	if len(p.Colors) == 0 {
		return true
	}
	for _, c := range p.Colors {
		if c == color {
			return true
		}
	}
	return false
}

// HasSize reports whether size is offered, with the same empty-set rule
// as HasColor.
func (p *Product) HasSize(size string) bool {
	if len(p.Sizes) == 0 {
		return true
	}
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}
