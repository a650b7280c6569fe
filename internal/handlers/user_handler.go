package handlers

import (
	"context"
	"time"

	"fintack/internal/models"
	"fintack/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler exposes profile endpoints
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the caller's profile, creating it on first contact
// GET /api/v1/me
func (h *UserHandler) Me(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	profile, err := h.users.EnsureProfile(ctx, userID)
	if err != nil {
		return fail(c, "USER-API", err)
	}

	return c.JSON(profile)
}

// CompleteOnboarding flags the caller's onboarding as finished
// POST /api/v1/me/onboarding-complete
func (h *UserHandler) CompleteOnboarding(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := h.users.EnsureProfile(ctx, userID); err != nil {
		return fail(c, "USER-API", err)
	}
	if err := h.users.SetOnboardingComplete(ctx, userID); err != nil {
		return fail(c, "USER-API", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Onboarding marked as complete.",
	})
}

type communicationStyleRequest struct {
	Style string `json:"style"`
}

// SetCommunicationStyle records the caller's coaching-style preference
// POST /api/v1/me/communication-style
func (h *UserHandler) SetCommunicationStyle(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req communicationStyleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	style := models.CommunicationStyle(req.Style)
	if style != models.StyleDirective && style != models.StyleSupportive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "style must be 'directive' or 'supportive'",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := h.users.EnsureProfile(ctx, userID); err != nil {
		return fail(c, "USER-API", err)
	}
	if err := h.users.SetCommunicationStyle(ctx, userID, style); err != nil {
		return fail(c, "USER-API", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
