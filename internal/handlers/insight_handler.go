package handlers

import (
	"context"
	"time"

	"fintack/internal/services"

	"github.com/gofiber/fiber/v2"
)

// InsightHandler exposes the proactive-insight endpoints
type InsightHandler struct {
	insights *services.InsightService
}

// NewInsightHandler creates a new insight handler
func NewInsightHandler(insights *services.InsightService) *InsightHandler {
	return &InsightHandler{insights: insights}
}

// List returns the user's insights, newest first
// GET /api/v1/insights
func (h *InsightHandler) List(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	insights, err := h.insights.List(ctx, userID, 50)
	if err != nil {
		return fail(c, "INSIGHT-API", err)
	}

	return c.JSON(fiber.Map{
		"insights": insights,
	})
}

// MarkRead flags one insight as read
// POST /api/v1/insights/:id/read
func (h *InsightHandler) MarkRead(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.insights.MarkRead(ctx, userID, c.Params("id")); err != nil {
		return fail(c, "INSIGHT-API", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
