package routes

import (
	"github.com/anjiri1684/training_portal/handlers"
	"github.com/anjiri1684/training_portal/middleware"
	"github.com/anjiri1684/training_portal/models"
	"github.com/gofiber/fiber/v2"
)

func UserRoutes(app *fiber.App, h *handlers.UserHandler, jwtSecret string) {
	api := app.Group("/api/v1")

	users := api.Group("/users", middleware.Protected(jwtSecret), middleware.RoleRequired(models.RoleAdmin))
	users.Get("", h.List)
	users.Post("", h.Create)
	users.Get("/:userId", h.Get)
	users.Delete("/:userId", h.Delete)
}
