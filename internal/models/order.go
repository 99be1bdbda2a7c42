package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipping  OrderStatus = "shipping"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentMethod identifies how the customer pays.
type PaymentMethod string

const (
	PaymentMethodCOD   PaymentMethod = "COD"
	PaymentMethodVNPAY PaymentMethod = "VNPAY"
	PaymentMethodMOMO  PaymentMethod = "MOMO"
)

// ValidPaymentMethods returns the payment methods the store accepts.
// New gateways are added here without touching the state machines.
func ValidPaymentMethods() []PaymentMethod {
	return []PaymentMethod{PaymentMethodCOD, PaymentMethodVNPAY, PaymentMethodMOMO}
}

// IsValidPaymentMethod reports whether m is an accepted payment method.
func IsValidPaymentMethod(m PaymentMethod) bool {
	for _, v := range ValidPaymentMethods() {
		if v == m {
			return true
		}
	}
	return false
}

// Variant captures the color/size the customer picked, snapshotted on the
// order item so later catalog edits do not change past orders.
type Variant struct {
	Color string `json:"color,omitempty"`
	Size  string `json:"size,omitempty"`
}

// OrderItem is a single line of an order. Price is the unit price at the
// time the order was created.
type OrderItem struct {
	ID        string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string  `json:"-" gorm:"type:varchar(36);index"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36)"`
	Quantity  int     `json:"quantity" validate:"required,gte=1"`
	Price     float64 `json:"price"`
	Variant   Variant `json:"variant" gorm:"embedded;embeddedPrefix:variant_"`

	// Product is resolved for display only; it is never written back.
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID;references:ID"`
}

// ShippingAddress is where the order is delivered.
type ShippingAddress struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city,omitempty"`
	District string `json:"district,omitempty"`
	Ward     string `json:"ward,omitempty"`
	Note     string `json:"note,omitempty"`
}

// Order represents one purchase transaction. It is created once by the
// order service and afterwards mutated only through the lifecycle
// state machines, never by direct field edits.
type Order struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber string          `json:"order_number" gorm:"uniqueIndex;type:varchar(32)"`
	UserID      string          `json:"user_id" gorm:"type:varchar(36);index"`
	Items       []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	TotalAmount float64         `json:"total_amount"`
	ShippingFee float64         `json:"shipping_fee"`
	Discount    float64         `json:"discount"`
	Address     ShippingAddress `json:"shipping_address" gorm:"embedded;embeddedPrefix:ship_"`

	OrderStatus   OrderStatus   `json:"order_status" gorm:"type:varchar(16)"`
	PaymentMethod PaymentMethod `json:"payment_method" gorm:"type:varchar(16)"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(16)"`

	PaidAt      *time.Time `json:"paid_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	Note        string     `json:"note,omitempty"`
	gorm.Model  `json:"-"`
}
