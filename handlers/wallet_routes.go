// handlers/wallet_routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"saafsaksham-system/middleware"
	"saafsaksham-system/services"
)

func SetupWalletRoutes(app *fiber.App, walletService *services.WalletService) {
	wallet := app.Group("/api/wallet", middleware.UserContextMiddleware())

	wallet.Get("/balance", walletService.GetBalance)
	wallet.Get("/transactions", walletService.GetTransactions)
}
