// handlers/verification_routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"saafsaksham-system/middleware"
	"saafsaksham-system/models"
	"saafsaksham-system/services"
)

func SetupVerificationRoutes(app *fiber.App, verificationService *services.VerificationService) {
	verify := app.Group("/api/verifications",
		middleware.UserContextMiddleware(),
		middleware.RequireRole(models.RoleVerifier),
	)

	verify.Get("/queue", verificationService.GetQueue)
	verify.Post("/tasks/:id", verificationService.SettleTask)
}
