package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/supportdesk/ticket-dashboard/internal/api/dto"
	"github.com/supportdesk/ticket-dashboard/internal/auth"
	"github.com/supportdesk/ticket-dashboard/internal/service"
	"github.com/supportdesk/ticket-dashboard/pkg/util"
)

// AuthHandler manages registration, login and session endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Register POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Login POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.Login(c.UserContext(), req)
	if err != nil {
		// Failed credentials keep the AuthResult envelope so the
		// dashboard login form can show the message directly.
		if de := util.ToDomainError(err); de.Code == "UNAUTHORIZED" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.AuthResult{Message: de.Message})
		}
		return err
	}
	return c.JSON(result)
}

// Refresh POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return util.NewValidationError("refreshToken is required", nil)
	}
	result, err := h.service.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Logout POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	if err := h.service.Logout(c.UserContext(), principal.User.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	user, err := h.service.Me(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(user)
}
