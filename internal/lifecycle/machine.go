// Package lifecycle is the single source of truth for order and payment
// status transitions. Every entry point (admin status updates, customer
// cancellation, direct payment edits) goes through the machines defined
// here, so the transition tables and guard rules exist exactly once.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"cuahang/internal/models"
)

var (
	// ErrInvalidTransition is returned when an order status change is not
	// in the transition table.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrInvalidPaymentTransition is returned when a payment status change
	// violates the payment table or one of its guard rules.
	ErrInvalidPaymentTransition = errors.New("invalid payment status transition")
)

// Effects reports side effects the caller must apply after a successful
// transition. The machines mutate the order itself but never touch other
// aggregates such as product inventory.
type Effects struct {
	// RestockItems is set when the order entered cancelled and the stock
	// reserved at creation must be returned.
	RestockItems bool
}

// Machine validates and executes order status transitions.
type Machine struct {
	transitions map[models.OrderStatus][]models.OrderStatus
}

// NewMachine creates the order status machine.
// pending -> confirmed | cancelled
// confirmed -> shipping | cancelled
// shipping -> delivered | cancelled
// delivered and cancelled are terminal (self-loop only).
func NewMachine() *Machine {
	return &Machine{
		transitions: map[models.OrderStatus][]models.OrderStatus{
			models.OrderPending:   {models.OrderConfirmed, models.OrderCancelled},
			models.OrderConfirmed: {models.OrderShipping, models.OrderCancelled},
			models.OrderShipping:  {models.OrderDelivered, models.OrderCancelled},
			models.OrderDelivered: {models.OrderDelivered},
			models.OrderCancelled: {models.OrderCancelled},
		},
	}
}

// CanTransition checks if a transition from `from` to `to` is valid.
func (m *Machine) CanTransition(from, to models.OrderStatus) bool {
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

// Transition moves the order to the target status and applies the coupled
// payment cascades. On failure the order is left untouched.
func (m *Machine) Transition(order *models.Order, to models.OrderStatus) (Effects, error) {
	if !m.CanTransition(order.OrderStatus, to) {
		return Effects{}, fmt.Errorf("%w: cannot move from %q to %q", ErrInvalidTransition, order.OrderStatus, to)
	}

	// Terminal self-loops are accepted but change nothing.
	if order.OrderStatus == to {
		return Effects{}, nil
	}

	order.OrderStatus = to

	var effects Effects
	now := time.Now()
	switch to {
	case models.OrderDelivered:
		order.DeliveredAt = &now
		// COD is collected at the door, so delivery implies payment.
		if order.PaymentMethod == models.PaymentMethodCOD && order.PaymentStatus == models.PaymentUnpaid {
			order.PaymentStatus = models.PaymentPaid
			order.PaidAt = &now
		}
	case models.OrderCancelled:
		if order.PaymentStatus == models.PaymentPaid {
			order.PaymentStatus = models.PaymentRefunded
		}
		effects.RestockItems = true
	}

	return effects, nil
}

// AllowedTransitions returns the targets reachable from the given status.
func (m *Machine) AllowedTransitions(from models.OrderStatus) []models.OrderStatus {
	allowed, ok := m.transitions[from]
	if !ok {
		return nil
	}
	out := make([]models.OrderStatus, len(allowed))
	copy(out, allowed)
	return out
}
