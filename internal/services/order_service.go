package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"cuahang/internal/lifecycle"
	"cuahang/internal/models"
	"cuahang/internal/repositories"
)

// EventPublisher publishes order lifecycle events to the message broker.
// Publishing is always best-effort: a broker hiccup never fails the order
// mutation that triggered the event.
type EventPublisher interface {
	PublishOrderEvent(routingKey string, body []byte) error
}

// Actor identifies who is requesting an order mutation.
type Actor struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	ShippingAddress models.ShippingAddress `json:"shipping_address" validate:"required"`
	PaymentMethod   models.PaymentMethod   `json:"payment_method" validate:"required"`
	Discount        float64                `json:"discount" validate:"gte=0"`
}

// OrderService handles the order lifecycle: creation from a cart, status
// and payment transitions, cancellation, payment and deletion. All status
// changes go through the lifecycle machines; nothing edits the status
// fields directly.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	cartRepo    repositories.CartRepository
	machine     *lifecycle.Machine
	payments    *lifecycle.PaymentMachine
	policy      PaymentPolicy
	events      EventPublisher
	shippingFee float64
}

// NewOrderService creates a new OrderService. A nil events publisher
// disables event publication; a nil policy falls back to the default
// immediate-paid behavior.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	cartRepo repositories.CartRepository,
	policy PaymentPolicy,
	events EventPublisher,
	shippingFee float64,
) *OrderService {
	if policy == nil {
		policy = ImmediatePaidPolicy{}
	}
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		machine:     lifecycle.NewMachine(),
		payments:    lifecycle.NewPaymentMachine(),
		policy:      policy,
		events:      events,
		shippingFee: shippingFee,
	}
}

// GetOrders retrieves all orders for an admin, or the actor's own orders
// otherwise.
func (s *OrderService) GetOrders(actor Actor) ([]models.Order, error) {
	if actor.IsAdmin() {
		return s.orderRepo.GetAll()
	}
	return s.orderRepo.GetAllByUser(actor.UserID)
}

// GetOrderByID retrieves a single order, enforcing ownership for
// non-admin actors.
func (s *OrderService) GetOrderByID(actor Actor, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.UserID != actor.UserID {
		return nil, fmt.Errorf("order %s: %w", id, ErrForbidden)
	}
	return order, nil
}

// CreateOrder converts the user's cart into an order.
//
// The stock check against the cart happens before reservation and the
// per-item decrement is a separate conditional update, so two concurrent
// checkouts can both pass the check; the conditional decrement then
// rejects the loser's reservation, which is logged under the best-effort
// inventory policy while the order itself still stands.
func (s *OrderService) CreateOrder(userID string, req CreateOrderRequest) (*models.Order, error) {
	if verr := validateCreateOrder(req); verr != nil {
		return nil, verr
	}

	cart, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	items, err := s.snapshotItems(cart)
	if err != nil {
		return nil, err
	}

	var itemsTotal float64
	for _, item := range items {
		itemsTotal += item.Price * float64(item.Quantity)
	}
	totalAmount := itemsTotal + s.shippingFee - req.Discount
	if totalAmount < 0 {
		return nil, NewValidationError("discount", "discount exceeds the order total")
	}

	orderNumber, err := s.allocateOrderNumber()
	if err != nil {
		return nil, err
	}

	paymentStatus, paidNow := s.policy.InitialPaymentStatus(req.PaymentMethod)
	order := &models.Order{
		UserID:        userID,
		OrderNumber:   orderNumber,
		Items:         items,
		TotalAmount:   totalAmount,
		ShippingFee:   s.shippingFee,
		Discount:      req.Discount,
		Address:       req.ShippingAddress,
		OrderStatus:   models.OrderPending,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: paymentStatus,
		Note:          req.ShippingAddress.Note,
	}
	if paidNow {
		now := time.Now()
		order.PaidAt = &now
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Reserve stock item by item. Deliberately best-effort: a failed
	// adjustment is logged and skipped so one sync hiccup does not block
	// checkout. The order is already committed at this point.
	for _, item := range order.Items {
		s.adjustInventoryBestEffort(item.ProductID, -item.Quantity, item.Quantity)
	}

	if err := s.cartRepo.Clear(cart.ID); err != nil {
		log.Printf("Warning: failed to clear cart %s after order %s: %v", cart.ID, order.ID, err)
	}

	s.publishEvent("order.created", order)

	created, err := s.orderRepo.GetByID(order.ID)
	if err != nil {
		// The order exists; return the in-memory copy if the reload fails.
		log.Printf("Warning: failed to reload order %s: %v", order.ID, err)
		return order, nil
	}
	return created, nil
}

// UpdateOrderStatus moves an order to the target status through the order
// state machine. Admins may request any legal transition; the owning user
// may only cancel their own order.
func (s *OrderService) UpdateOrderStatus(actor Actor, id string, target models.OrderStatus) (*models.Order, error) {
	if !isKnownOrderStatus(target) {
		return nil, NewValidationError("order_status", fmt.Sprintf("unknown status %q", target))
	}

	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		if order.UserID != actor.UserID {
			return nil, fmt.Errorf("order %s: %w", id, ErrForbidden)
		}
		if target != models.OrderCancelled {
			return nil, fmt.Errorf("only cancellation is available to customers: %w", ErrForbidden)
		}
	}

	effects, err := s.machine.Transition(order, target)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Update(order); err != nil {
		return nil, fmt.Errorf("failed to persist order status: %w", err)
	}

	if effects.RestockItems {
		// Return the stock reserved at creation, again best-effort per item.
		for _, item := range order.Items {
			s.adjustInventoryBestEffort(item.ProductID, item.Quantity, -item.Quantity)
		}
	}

	s.publishEvent("order.status_updated", order)
	return order, nil
}

// CancelOrder cancels an order on behalf of its owner or an admin.
func (s *OrderService) CancelOrder(actor Actor, id string) (*models.Order, error) {
	return s.UpdateOrderStatus(actor, id, models.OrderCancelled)
}

// UpdatePaymentStatus directly edits the payment status. This is an
// administrative operation, but it still runs through the payment machine
// and its guards.
func (s *OrderService) UpdatePaymentStatus(actor Actor, id string, target models.PaymentStatus) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("payment status updates are admin-only: %w", ErrForbidden)
	}
	if !isKnownPaymentStatus(target) {
		return nil, NewValidationError("payment_status", fmt.Sprintf("unknown status %q", target))
	}

	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.payments.Transition(order, target); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(order); err != nil {
		return nil, fmt.Errorf("failed to persist payment status: %w", err)
	}
	s.publishEvent("order.payment_updated", order)
	return order, nil
}

// PayOrder marks an order paid on behalf of its owner or an admin.
func (s *OrderService) PayOrder(actor Actor, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.UserID != actor.UserID {
		return nil, fmt.Errorf("order %s: %w", id, ErrForbidden)
	}
	if err := s.payments.Transition(order, models.PaymentPaid); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(order); err != nil {
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}
	s.publishEvent("order.payment_updated", order)
	return order, nil
}

// DeleteOrder removes an order. Admin-only, and only while the order is
// still pending or already cancelled.
func (s *OrderService) DeleteOrder(actor Actor, id string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("order deletion is admin-only: %w", ErrForbidden)
	}
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return err
	}
	if order.OrderStatus != models.OrderPending && order.OrderStatus != models.OrderCancelled {
		return fmt.Errorf("order %s is %s: %w", id, order.OrderStatus, ErrOrderNotDeletable)
	}
	return s.orderRepo.Delete(id)
}

// snapshotItems validates every cart line against the live product record
// and copies price and variant into immutable order items.
func (s *OrderService) snapshotItems(cart *models.Cart) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		product := line.Product
		if product == nil {
			p, err := s.productRepo.GetByID(line.ProductID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve cart product %s: %w", line.ProductID, err)
			}
			product = p
		}

		if product.Stock < line.Quantity {
			return nil, &PreconditionError{
				ProductName: product.Name,
				Reason:      fmt.Sprintf("only %d left in stock, %d requested", product.Stock, line.Quantity),
			}
		}
		if line.Variant.Color != "" && !product.HasColor(line.Variant.Color) {
			return nil, &PreconditionError{
				ProductName: product.Name,
				Reason:      fmt.Sprintf("color %q is not offered", line.Variant.Color),
			}
		}
		if line.Variant.Size != "" && !product.HasSize(line.Variant.Size) {
			return nil, &PreconditionError{
				ProductName: product.Name,
				Reason:      fmt.Sprintf("size %q is not offered", line.Variant.Size),
			}
		}

		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
			Variant:   line.Variant,
		})
	}
	return items, nil
}

// allocateOrderNumber generates a human-facing order number and verifies
// it is free. On a collision it retries exactly once with a fresh number;
// a second collision is a terminal failure. The check is not atomic with
// the insert, so the unique index on order_number remains the backstop.
func (s *OrderService) allocateOrderNumber() (string, error) {
	number := generateOrderNumber()
	exists, err := s.orderRepo.ExistsByOrderNumber(number)
	if err != nil {
		return "", fmt.Errorf("failed to check order number: %w", err)
	}
	if !exists {
		return number, nil
	}

	retry := generateOrderNumber() + "_retry"
	exists, err = s.orderRepo.ExistsByOrderNumber(retry)
	if err != nil {
		return "", fmt.Errorf("failed to check order number: %w", err)
	}
	if exists {
		return "", ErrOrderNumberConflict
	}
	return retry, nil
}

// generateOrderNumber builds the "DH" prefix + millisecond timestamp +
// 4-digit random suffix code customers see on their receipt.
func generateOrderNumber() string {
	return fmt.Sprintf("DH%d%04d", time.Now().UnixMilli(), rand.Intn(10000))
}

// adjustInventoryBestEffort applies one item's inventory delta and only
// logs on failure.
func (s *OrderService) adjustInventoryBestEffort(productID string, stockDelta, soldDelta int) {
	if err := s.productRepo.AdjustInventory(productID, stockDelta, soldDelta); err != nil {
		log.Printf("Warning: inventory adjustment (%+d stock, %+d sold) failed for product %s: %v",
			stockDelta, soldDelta, productID, err)
	}
}

func (s *OrderService) publishEvent(routingKey string, order *models.Order) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"order_id":       order.ID,
		"order_number":   order.OrderNumber,
		"user_id":        order.UserID,
		"order_status":   order.OrderStatus,
		"payment_status": order.PaymentStatus,
		"total":          order.TotalAmount,
	})
	if err != nil {
		log.Printf("Failed to marshal %s event for order %s: %v", routingKey, order.ID, err)
		return
	}
	if err := s.events.PublishOrderEvent(routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event for order %s: %v", routingKey, order.ID, err)
	}
}

func validateCreateOrder(req CreateOrderRequest) *ValidationError {
	fields := make(map[string]string)
	if req.ShippingAddress.FullName == "" {
		fields["shipping_address.full_name"] = "is required"
	}
	if req.ShippingAddress.Phone == "" {
		fields["shipping_address.phone"] = "is required"
	}
	if req.ShippingAddress.Address == "" {
		fields["shipping_address.address"] = "is required"
	}
	if req.PaymentMethod == "" {
		fields["payment_method"] = "is required"
	} else if !models.IsValidPaymentMethod(req.PaymentMethod) {
		fields["payment_method"] = fmt.Sprintf("must be one of %v", models.ValidPaymentMethods())
	}
	if req.Discount < 0 {
		fields["discount"] = "must not be negative"
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func isKnownOrderStatus(s models.OrderStatus) bool {
	switch s {
	case models.OrderPending, models.OrderConfirmed, models.OrderShipping,
		models.OrderDelivered, models.OrderCancelled:
		return true
	}
	return false
}

func isKnownPaymentStatus(s models.PaymentStatus) bool {
	switch s {
	case models.PaymentUnpaid, models.PaymentPaid, models.PaymentRefunded:
		return true
	}
	return false
}
