// Package routes defines the API routes and URL structure
package routes

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/atelierml/atelier/internal/api/v1/handlers"
)

// API base configuration
const (
	// DefaultPort is the default port for the API
	DefaultPort = "8080"
	// APIv1Prefix is the prefix for all API endpoints
	APIv1Prefix = "/api/v1"
)

// RegisterRoutes configures all the v1 routes.
//
// NOTE: route ordering matters because fiber matches routes in registration
// order; fixed path segments are registered before parameterized ones.
func RegisterRoutes(
	app *fiber.App,
	trainingHandler *handlers.TrainingHandler,
	inferenceHandler *handlers.InferenceHandler,
	modelHandler *handlers.ModelHandler,
) {
	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	v1 := app.Group(APIv1Prefix)

	// Training endpoints
	train := v1.Group("/train")
	train.Get("/status", trainingHandler.GetTrainingStatus)
	train.Post("/", trainingHandler.StartTraining)
	train.Post("/terminate", trainingHandler.TerminateTraining)

	// Generation endpoints
	generate := v1.Group("/generate")
	generate.Get("/status", inferenceHandler.GetGenerationStatus)
	generate.Post("/", inferenceHandler.StartGeneration)
	generate.Post("/terminate", inferenceHandler.TerminateGeneration)

	// Generated image payloads
	v1.Get("/images/:id", inferenceHandler.GetImage)

	// Model artifact endpoints
	models := v1.Group("/models")
	models.Get("/", modelHandler.ListModels)
	models.Get("/:name/download", modelHandler.DownloadModel)
	models.Delete("/:name", modelHandler.DeleteModel)
}
