package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/atelierml/atelier/internal/logger"
	"github.com/atelierml/atelier/internal/services"
	"github.com/atelierml/atelier/internal/types"
)

// TrainingHandler handles HTTP requests for the fine-tuning pipeline
type TrainingHandler struct {
	service *services.Training
	dataDir string
}

// NewTrainingHandler creates a training handler staging uploads in dataDir.
func NewTrainingHandler(service *services.Training, dataDir string) *TrainingHandler {
	return &TrainingHandler{
		service: service,
		dataDir: dataDir,
	}
}

// StartTraining handles POST /api/v1/train. It accepts a multipart form with
// the training images and the job parameters, stages the images on disk and
// admits the job.
func (h *TrainingHandler) StartTraining(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return respondWithError(c, types.NewValidationError(ErrMsgInvalidReqBody))
	}

	images := form.File["images"]
	if len(images) == 0 {
		return respondWithError(c, types.NewValidationError(ErrMsgImagesRequired))
	}

	req := types.TrainingRequest{
		BaseModel:      c.FormValue("baseModel"),
		InstancePrompt: c.FormValue("instancePrompt"),
	}
	req.Steps, _ = strconv.Atoi(c.FormValue("steps"))
	req.LearningRate, _ = strconv.ParseFloat(c.FormValue("learningRate"), 64)
	req.Resolution, _ = strconv.Atoi(c.FormValue("resolution"))
	req.TrainBatchSize, _ = strconv.Atoi(c.FormValue("trainBatchSize"))

	if err := req.Validate(); err != nil {
		return respondWithError(c, err)
	}

	// Each request stages its images into its own directory. A request that
	// is rejected below must not disturb the dataset of a job already
	// running off an earlier staging dir.
	if err := os.MkdirAll(h.dataDir, 0o755); err != nil {
		return respondWithError(c, types.NewStorageError(ErrMsgImageStageFailed, err))
	}
	stagingDir, err := os.MkdirTemp(h.dataDir, "dataset-")
	if err != nil {
		return respondWithError(c, types.NewStorageError(ErrMsgImageStageFailed, err))
	}
	for _, file := range images {
		dst := filepath.Join(stagingDir, filepath.Base(file.Filename))
		if err := c.SaveFile(file, dst); err != nil {
			logger.Errorf("Failed to save uploaded image %s: %v", file.Filename, err)
			_ = os.RemoveAll(stagingDir)
			return respondWithError(c, types.NewStorageError(ErrMsgImageStageFailed, err))
		}
	}

	outputDir, err := h.service.Start(c.Context(), &req, stagingDir)
	if err != nil {
		_ = os.RemoveAll(stagingDir)
		return respondWithError(c, err)
	}

	return c.JSON(types.StartResponse{
		Status:    "accepted",
		Message:   fmt.Sprintf("Training started in the background. Model will be saved to '%s'.", outputDir),
		OutputDir: outputDir,
	})
}

// GetTrainingStatus handles GET /api/v1/train/status
func (h *TrainingHandler) GetTrainingStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// TerminateTraining handles POST /api/v1/train/terminate
func (h *TrainingHandler) TerminateTraining(c *fiber.Ctx) error {
	if err := h.service.Terminate(); err != nil {
		return respondWithError(c, types.NewConflictError(ErrMsgNoActiveTraining))
	}
	return c.JSON(types.StartResponse{
		Status:  "accepted",
		Message: "Termination signal sent.",
	})
}
