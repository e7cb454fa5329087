package handlers

import (
	"context"
	"time"

	"github.com/anjiri1684/training_portal/database"
	"github.com/gofiber/fiber/v2"
)

func Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := database.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "error",
			"database": "unreachable",
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
