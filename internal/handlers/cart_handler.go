package handlers

import (
	"fmt"
	"log"

	"cuahang/internal/models"
	"cuahang/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the shopping cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Put("/items/:itemId", h.HandleUpdateItem)
	cartRoutes.Delete("/items/:itemId", h.HandleRemoveItem)
}

// HandleGetCart returns the actor's cart.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.service.GetCart(actorFromCtx(c).UserID)
	if err != nil {
		log.Printf("Error getting cart: %v", err)
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Cart retrieved", cart)
}

type addItemRequest struct {
	ProductID string         `json:"product_id" validate:"required"`
	Quantity  int            `json:"quantity" validate:"required,gte=1"`
	Variant   models.Variant `json:"variant"`
}

// HandleAddItem puts a product into the cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
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

	cart, err := h.service.AddItem(actorFromCtx(c).UserID, req.ProductID, req.Quantity, req.Variant)
	if err != nil {
		log.Printf("Error adding item to cart: %v", err)
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Item added to cart", cart)
}

// HandleUpdateItem changes a cart line's quantity; zero removes it.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := c.BodyParser(&body); err != nil {
		return respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	cart, err := h.service.UpdateItem(actorFromCtx(c).UserID, c.Params("itemId"), body.Quantity)
	if err != nil {
		log.Printf("Error updating cart item %s: %v", c.Params("itemId"), err)
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Cart updated", cart)
}

// HandleRemoveItem deletes a line from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	cart, err := h.service.RemoveItem(actorFromCtx(c).UserID, c.Params("itemId"))
	if err != nil {
		log.Printf("Error removing cart item %s: %v", c.Params("itemId"), err)
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Item removed from cart", cart)
}
