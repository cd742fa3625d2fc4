// handlers/profile_routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"saafsaksham-system/middleware"
	"saafsaksham-system/models"
	"saafsaksham-system/services"
)

func SetupProfileRoutes(app *fiber.App, profileService *services.ProfileService, notificationService *services.NotificationService) {
	profiles := app.Group("/api/profiles", middleware.UserContextMiddleware())

	profiles.Get("/me", profileService.GetMyProfile)
	profiles.Patch("/me", profileService.UpdateMyProfile)
	profiles.Get("/me/stats", profileService.GetMyStats)
	profiles.Get("/:id", profileService.GetProfile)
	profiles.Patch("/:id/role",
		middleware.RequireRole(models.RoleAdmin),
		profileService.UpdateRole,
	)

	notifications := app.Group("/api/notifications", middleware.UserContextMiddleware())
	notifications.Get("/", notificationService.GetNotifications)
	notifications.Get("/counts", notificationService.GetCounts)
	notifications.Patch("/:id/read", notificationService.MarkRead)
	notifications.Post("/read-all", notificationService.MarkAllRead)
}
