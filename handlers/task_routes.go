// handlers/task_routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"saafsaksham-system/middleware"
	"saafsaksham-system/services"
)

func SetupTaskRoutes(app *fiber.App, taskService *services.TaskService) {
	// All task routes require the gateway-forwarded user context.
	tasks := app.Group("/api/tasks", middleware.UserContextMiddleware())

	tasks.Get("/", taskService.GetTasks)
	tasks.Post("/", taskService.CreateTask)
	tasks.Get("/mine", taskService.GetMyTasks)
	tasks.Get("/:id", taskService.GetTask)
	tasks.Get("/:id/proofs", taskService.GetTaskProofs)

	// Lifecycle transitions. Each one is a conditional UPDATE under the
	// hood, so racing callers get a 409 instead of a double transition.
	tasks.Post("/:id/claim", taskService.ClaimTask)
	tasks.Post("/:id/proofs", taskService.AttachProof)
	tasks.Post("/:id/submit", taskService.SubmitTask)
}
