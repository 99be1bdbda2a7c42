package handlers

import (
	"fmt"
	"log"

	"cuahang/internal/models"
	"cuahang/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app. All of
// them sit behind the auth middleware; per-order authorization (owner vs
// admin) happens in the service.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Put("/:id/cancel", h.HandleCancelOrder)
	orderRoutes.Put("/:id/status", h.HandleUpdateOrderStatus)
	orderRoutes.Put("/:id/payment", h.HandleUpdatePaymentStatus)
	orderRoutes.Put("/:id/pay", h.HandlePayOrder)
	orderRoutes.Delete("/:id", h.HandleDeleteOrder)
}

// HandleGetOrders returns the actor's orders, or every order for admins.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetOrders(actorFromCtx(c))
	if err != nil {
		log.Printf("Error getting orders: %v", err)
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Orders retrieved", orders)
}

// HandleGetOrderByID returns a single order with product details.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByID(actorFromCtx(c), c.Params("id"))
	if err != nil {
		log.Printf("Error getting order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Order retrieved", order)
}

// HandleCreateOrder converts the actor's cart into an order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create order body: %v", err)
		return respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	// Collect every violated field, not just the first.
	if err := h.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	actor := actorFromCtx(c)
	order, err := h.service.CreateOrder(actor.UserID, req)
	if err != nil {
		log.Printf("Error creating order for user %s: %v", actor.UserID, err)
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Order placed successfully", order)
}

// HandleCancelOrder cancels an order on behalf of its owner or an admin.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	order, err := h.service.CancelOrder(actorFromCtx(c), c.Params("id"))
	if err != nil {
		log.Printf("Error cancelling order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Order cancelled successfully", order)
}

// HandleUpdateOrderStatus moves an order to a new status. The response
// echoes the whole order so callers see any cascaded payment change.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var body struct {
		OrderStatus models.OrderStatus `json:"order_status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if body.OrderStatus == "" {
		return respond(c, fiber.StatusBadRequest, "order_status is required", nil)
	}

	order, err := h.service.UpdateOrderStatus(actorFromCtx(c), c.Params("id"), body.OrderStatus)
	if err != nil {
		log.Printf("Error updating status of order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Order status updated", order)
}

// HandleUpdatePaymentStatus directly edits an order's payment status
// (admin operation).
func (h *OrderHandler) HandleUpdatePaymentStatus(c *fiber.Ctx) error {
	var body struct {
		PaymentStatus models.PaymentStatus `json:"payment_status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if body.PaymentStatus == "" {
		return respond(c, fiber.StatusBadRequest, "payment_status is required", nil)
	}

	if _, err := h.service.UpdatePaymentStatus(actorFromCtx(c), c.Params("id"), body.PaymentStatus); err != nil {
		log.Printf("Error updating payment status of order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Payment status updated", nil)
}

// HandlePayOrder marks an order paid.
func (h *OrderHandler) HandlePayOrder(c *fiber.Ctx) error {
	order, err := h.service.PayOrder(actorFromCtx(c), c.Params("id"))
	if err != nil {
		log.Printf("Error paying order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Order paid successfully", order)
}

// HandleDeleteOrder removes a pending or cancelled order (admin
// operation).
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	if err := h.service.DeleteOrder(actorFromCtx(c), c.Params("id")); err != nil {
		log.Printf("Error deleting order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Order deleted successfully", nil)
}
