package routes

import (
	"github.com/anjiri1684/training_portal/handlers"
	"github.com/anjiri1684/training_portal/middleware"
	"github.com/anjiri1684/training_portal/models"
	"github.com/gofiber/fiber/v2"
)

func CertificateRoutes(app *fiber.App, h *handlers.CertificateHandler, jwtSecret string) {
	api := app.Group("/api/v1")

	certificates := api.Group("/certificates")
	certificates.Get("/verify", h.Verify)
	certificates.Get("/download/:certNo", h.Download)

	protected := middleware.Protected(jwtSecret)
	issuer := middleware.RoleRequired(models.RoleAdmin, models.RoleInstructor)
	certificates.Post("/generate", protected, issuer, h.GenerateByName)
	certificates.Post("/students/:studentId", protected, issuer, h.GenerateByStudentID)
}
