package handlers

import (
	"errors"

	"cuahang/internal/lifecycle"
	"cuahang/internal/repositories"
	"cuahang/internal/services"

	"github.com/gofiber/fiber/v2"
)

// respond writes the uniform response envelope every endpoint uses:
// {success, message, data?}.
func respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	payload := fiber.Map{
		"success": status < 400,
		"message": message,
	}
	if data != nil {
		payload["data"] = data
	}
	return c.Status(status).JSON(payload)
}

// respondError maps a service error onto the envelope with the right
// status code. Unclassified errors become opaque 500s.
func respondError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	}

	var perr *services.PreconditionError
	if errors.As(err, &perr) {
		return respond(c, fiber.StatusBadRequest, perr.Error(), nil)
	}

	switch {
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrInvalidPaymentTransition),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrOrderNotDeletable):
		return respond(c, fiber.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, services.ErrForbidden):
		return respond(c, fiber.StatusForbidden, err.Error(), nil)
	case errors.Is(err, repositories.ErrNotFound):
		return respond(c, fiber.StatusNotFound, err.Error(), nil)
	case errors.Is(err, services.ErrOrderNumberConflict):
		return respond(c, fiber.StatusConflict, err.Error(), nil)
	default:
		return respond(c, fiber.StatusInternalServerError, "Internal server error", nil)
	}
}

// actorFromCtx builds the acting user from the claims the auth middleware
// stored on the request.
func actorFromCtx(c *fiber.Ctx) services.Actor {
	userID, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("role").(string)
	return services.Actor{UserID: userID, Role: role}
}
