package handlers

import (
	"context"
	"time"

	"fintack/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports liveness of the service and its stores
type HealthHandler struct {
	mongodb *database.MongoDB
	redis   *redis.Client
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(mongodb *database.MongoDB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{mongodb: mongodb, redis: redisClient}
}

// Check returns 200 when the service and its stores respond
// GET /health
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status := fiber.Map{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	healthy := true

	if err := h.mongodb.Ping(ctx); err != nil {
		status["mongodb"] = "down"
		healthy = false
	} else {
		status["mongodb"] = "up"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			status["redis"] = "down"
		} else {
			status["redis"] = "up"
		}
	}

	if !healthy {
		status["status"] = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	return c.JSON(status)
}
