package handlers

import (
	"context"
	"time"

	"fintack/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CoachHandler exposes the conversational coaching endpoints
type CoachHandler struct {
	coach   *services.CoachService
	users   *services.UserService
	chatLog *services.ChatLogService
}

// NewCoachHandler creates a new coach handler
func NewCoachHandler(coach *services.CoachService, users *services.UserService, chatLog *services.ChatLogService) *CoachHandler {
	return &CoachHandler{coach: coach, users: users, chatLog: chatLog}
}

type askRequest struct {
	Prompt    string `json:"prompt"`
	InputType string `json:"input_type"` // "text" (default) or "voice"
}

// Ask runs one coaching turn
// POST /api/v1/coach/ask
func (h *CoachHandler) Ask(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req askRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.InputType == "" {
		req.InputType = services.InputText
	}

	// Two model turns plus optional synthesis can take a while
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := h.users.EnsureProfile(ctx, userID); err != nil {
		return fail(c, "COACH-API", err)
	}

	reply, err := h.coach.Ask(ctx, userID, req.Prompt, req.InputType)
	if err != nil {
		return fail(c, "COACH-API", err)
	}

	return c.JSON(fiber.Map{
		"response":   reply.Text,
		"audio_urls": reply.AudioURLs,
		"mission":    reply.Mission,
	})
}

// History returns the user's conversation history in chronological order
// GET /api/v1/coach/history
func (h *CoachHandler) History(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	messages, err := h.chatLog.History(ctx, userID, 200)
	if err != nil {
		return fail(c, "COACH-API", err)
	}

	return c.JSON(fiber.Map{
		"messages": messages,
	})
}
