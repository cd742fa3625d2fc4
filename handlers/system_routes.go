// handlers/system_routes.go
package handlers

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"saafsaksham-system/middleware"
	"saafsaksham-system/services"
	"saafsaksham-system/utils"
)

func SetupSystemRoutes(app *fiber.App, profileService *services.ProfileService) {
	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := profileService.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	secured := app.Group("/api", middleware.UserContextMiddleware())

	// Proxies proof photos and avatars to object storage, returning the
	// CDN URL the client stores on the proof row.
	secured.Post("/upload", func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
		}

		prefix := c.FormValue("prefix", "proofs")
		switch prefix {
		case "proofs", "avatars", "tasks":
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "prefix must be proofs, avatars or tasks"})
		}

		key := utils.ObjectKey(prefix, fileHeader.Filename)
		url, err := utils.UploadFile(fileHeader, key)
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("upload failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Upload failed"})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"key": key, "url": url})
	})

	// Inbound webhooks (CSR partner fulfilment callbacks). Payloads are
	// accepted and logged; processing is async on the partner side.
	secured.Post("/webhooks/:source", func(c *fiber.Ctx) error {
		log.Info().
			Str("source", c.Params("source")).
			Int("bytes", len(c.Body())).
			Msg("webhook received")
		return c.SendStatus(fiber.StatusAccepted)
	})
}
