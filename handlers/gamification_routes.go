// handlers/gamification_routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"saafsaksham-system/middleware"
	"saafsaksham-system/services"
)

func SetupGamificationRoutes(app *fiber.App, gamificationService *services.GamificationService) {
	game := app.Group("/api", middleware.UserContextMiddleware())

	game.Get("/badges", gamificationService.GetBadges)
	game.Get("/users/:id/badges", gamificationService.GetUserBadges)
	game.Get("/leaderboard", gamificationService.GetLeaderboard)
}
