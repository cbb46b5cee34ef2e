package main

import (
	"os"
	"os/signal"
	"syscall"

	fiber "github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"github.com/atelierml/atelier/internal/api/v1/handlers"
	"github.com/atelierml/atelier/internal/api/v1/routes"
	"github.com/atelierml/atelier/internal/config"
	"github.com/atelierml/atelier/internal/engine"
	"github.com/atelierml/atelier/internal/jobs"
	"github.com/atelierml/atelier/internal/logger"
	"github.com/atelierml/atelier/internal/services"
)

func main() {
	// Load .env if present; real env vars take precedence.
	_ = godotenv.Load()

	logger.InitializeAndConfigure()
	cfg := config.Load()
	logger.InfoWithFields("Configuration loaded", map[string]interface{}{
		"port":       cfg.ServerPort,
		"model_root": cfg.ModelRoot,
		"image_ttl":  cfg.ImageTTL.String(),
	})

	// Job orchestration core: one status slot and one cancellation token per
	// job kind, single-flight admission through the controller.
	statusStore := jobs.NewStatusStore()
	controller := jobs.NewController(statusStore)

	// Model-execution engine. The mock engine stands in for the external
	// training/sampling library.
	eng := engine.NewMockEngine()

	artifacts, err := services.NewArtifactsService(cfg.ModelRoot)
	if err != nil {
		logger.Fatalf("Failed to initialize artifact registry: %v", err)
	}
	logger.Infof("Model registry ready at %s", artifacts.Root())

	images := services.NewImageStore(cfg.ImageTTL)
	defer images.Close()

	training := services.NewTrainingService(eng, statusStore, controller, cfg.ModelRoot)
	inference := services.NewInferenceService(eng, statusStore, controller, images)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    256 * 1024 * 1024, // uploaded training image sets can be large
	})
	app.Use(fiberlogger.New())

	routes.RegisterRoutes(
		app,
		handlers.NewTrainingHandler(training, cfg.TrainingDataDir),
		handlers.NewInferenceHandler(inference, images),
		handlers.NewModelHandler(artifacts),
	)

	go func() {
		logger.Infof("Starting server on port %s", cfg.ServerPort)
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}
	logger.Info("Server exited")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
