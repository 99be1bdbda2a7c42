package lifecycle

import (
	"fmt"
	"time"

	"cuahang/internal/models"
)

// PaymentMachine validates and executes payment status transitions,
// including the guard rules layered on top of the plain table. It is used
// both for the cascades triggered by order status changes and for direct
// administrative payment edits.
type PaymentMachine struct {
	transitions map[models.PaymentStatus][]models.PaymentStatus
}

// NewPaymentMachine creates the payment status machine.
// unpaid -> paid, paid -> refunded, refunded is terminal.
func NewPaymentMachine() *PaymentMachine {
	return &PaymentMachine{
		transitions: map[models.PaymentStatus][]models.PaymentStatus{
			models.PaymentUnpaid:   {models.PaymentPaid},
			models.PaymentPaid:     {models.PaymentRefunded},
			models.PaymentRefunded: {models.PaymentRefunded},
		},
	}
}

// CanTransition checks the table only; guards live in Transition.
func (m *PaymentMachine) CanTransition(from, to models.PaymentStatus) bool {
	allowed, ok := m.transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the order's payment status to the target. Guard rules
// are evaluated before the table lookup:
//   - a cancelled order can only move to refunded;
//   - a delivered COD order can never be reverted to unpaid.
//
// On failure the order is left untouched.
func (m *PaymentMachine) Transition(order *models.Order, to models.PaymentStatus) error {
	if order.OrderStatus == models.OrderCancelled && to != models.PaymentRefunded {
		return fmt.Errorf("%w: a cancelled order can only be refunded, not %q", ErrInvalidPaymentTransition, to)
	}
	if order.PaymentMethod == models.PaymentMethodCOD &&
		order.OrderStatus == models.OrderDelivered &&
		to == models.PaymentUnpaid {
		return fmt.Errorf("%w: a delivered COD order cannot revert to unpaid", ErrInvalidPaymentTransition)
	}
	if !m.CanTransition(order.PaymentStatus, to) {
		return fmt.Errorf("%w: cannot move from %q to %q", ErrInvalidPaymentTransition, order.PaymentStatus, to)
	}

	if order.PaymentStatus == to {
		return nil
	}

	order.PaymentStatus = to
	if to == models.PaymentPaid {
		now := time.Now()
		order.PaidAt = &now
	}
	return nil
}
