package handlers

import (
	"fmt"
	"log"
	"strings"

	"cuahang/internal/models"
	"cuahang/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	// Validate the user struct
	if err := h.validate.Struct(user); err != nil {
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

	if err := h.authService.RegisterUser(&user); err != nil {
		log.Printf("Error registering user: %v", err)
		if strings.Contains(err.Error(), "already taken") || strings.Contains(err.Error(), "already registered") {
			return respond(c, fiber.StatusConflict, err.Error(), nil)
		}
		return respond(c, fiber.StatusInternalServerError, "Could not register user", nil)
	}

	return respond(c, fiber.StatusCreated, "User registered successfully", nil)
}

// HandleLogin authenticates a user and returns a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var credentials struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.BodyParser(&credentials); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if credentials.Username == "" || credentials.Password == "" {
		return respond(c, fiber.StatusBadRequest, "Username and password are required", nil)
	}

	token, err := h.authService.LoginUser(credentials.Username, credentials.Password)
	if err != nil {
		log.Printf("Login failed for user %s: %v", credentials.Username, err)
		return respond(c, fiber.StatusUnauthorized, "Invalid credentials", nil)
	}

	return respond(c, fiber.StatusOK, "Login successful", fiber.Map{"token": token})
}
