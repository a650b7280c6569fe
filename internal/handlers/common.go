package handlers

import (
	"log"

	"fintack/internal/apperrors"

	"github.com/gofiber/fiber/v2"
)

// requireUser pulls the authenticated user id set by the auth middleware
func requireUser(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals("user_id").(string)
	return userID, ok && userID != ""
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Authentication required",
	})
}

// fail maps a service error onto the HTTP response. Internal causes are
// logged, never echoed to the client.
func fail(c *fiber.Ctx, tag string, err error) error {
	status := apperrors.HTTPStatus(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("❌ [%s] %v", tag, err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": apperrors.UserMessage(err),
	})
}
