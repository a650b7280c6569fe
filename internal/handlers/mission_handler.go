package handlers

import (
	"context"
	"time"

	"fintack/internal/models"
	"fintack/internal/services"

	"github.com/gofiber/fiber/v2"
)

// MissionHandler exposes mission lifecycle endpoints
type MissionHandler struct {
	missions *services.MissionService
	users    *services.UserService
}

// NewMissionHandler creates a new mission handler
func NewMissionHandler(missions *services.MissionService, users *services.UserService) *MissionHandler {
	return &MissionHandler{missions: missions, users: users}
}

type createMissionRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	XPReward         int64  `json:"xp_reward"`
	LevelRequirement int    `json:"level_requirement"`
	PathName         string `json:"path_name"`
	Tangga           int    `json:"tangga"`
	SubStep          int    `json:"sub_step"`
}

// Create creates a mission directly (outside the conversation protocol)
// POST /api/v1/missions
func (h *MissionHandler) Create(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req createMissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mission, err := h.missions.Create(ctx, userID, &models.Mission{
		Title:            req.Title,
		Description:      req.Description,
		XPReward:         req.XPReward,
		LevelRequirement: req.LevelRequirement,
		PathName:         req.PathName,
		Tangga:           req.Tangga,
		SubStep:          req.SubStep,
	})
	if err != nil {
		return fail(c, "MISSION-API", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"mission": mission,
	})
}

// List returns the user's missions
// GET /api/v1/missions
func (h *MissionHandler) List(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	missions, err := h.missions.List(ctx, userID)
	if err != nil {
		return fail(c, "MISSION-API", err)
	}

	return c.JSON(fiber.Map{
		"missions": missions,
	})
}

type completeMissionRequest struct {
	XPGained int64 `json:"xp_gained"`
}

// Complete marks a mission completed, credits the reward and kicks off the
// dynamic advancement side turn.
// POST /api/v1/missions/:id/complete
func (h *MissionHandler) Complete(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}
	missionID := c.Params("id")

	var req completeMissionRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if _, err := h.users.EnsureProfile(ctx, userID); err != nil {
		return fail(c, "MISSION-API", err)
	}

	mission, err := h.missions.Complete(ctx, userID, missionID, req.XPGained)
	if err != nil {
		return fail(c, "MISSION-API", err)
	}

	// Best-effort follow-up generation, detached from this request
	go h.missions.Advance(context.Background(), userID, mission.PathName, mission.Tangga, mission.SubStep)

	return c.JSON(fiber.Map{
		"success": true,
		"mission": mission,
	})
}
