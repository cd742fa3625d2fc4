// handlers/rewards_routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"saafsaksham-system/middleware"
	"saafsaksham-system/models"
	"saafsaksham-system/services"
)

func SetupRewardsRoutes(app *fiber.App, rewardsService *services.RewardsService, walletService *services.WalletService) {
	rewards := app.Group("/api/rewards", middleware.UserContextMiddleware())

	rewards.Get("/", rewardsService.GetCatalog)
	rewards.Post("/:id/redeem", rewardsService.RedeemOption)

	redemptions := app.Group("/api/redemptions", middleware.UserContextMiddleware())
	redemptions.Get("/", walletService.GetRedemptions)
	redemptions.Get("/:id/qr", rewardsService.GetRedemptionQR)

	// Catalog and fulfilment management
	admin := app.Group("/api/admin",
		middleware.UserContextMiddleware(),
		middleware.RequireRole(models.RoleAdmin),
	)
	admin.Post("/rewards", rewardsService.CreateOption)
	admin.Patch("/rewards/:id", rewardsService.UpdateOption)
	admin.Patch("/redemptions/:id", rewardsService.UpdateRedemptionStatus)
}
