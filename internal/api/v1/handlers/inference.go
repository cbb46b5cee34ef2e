package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/atelierml/atelier/internal/services"
	"github.com/atelierml/atelier/internal/types"
)

// InferenceHandler handles HTTP requests for the image-generation pipeline
type InferenceHandler struct {
	service *services.Inference
	images  *services.Images
}

// NewInferenceHandler creates an inference handler.
func NewInferenceHandler(service *services.Inference, images *services.Images) *InferenceHandler {
	return &InferenceHandler{
		service: service,
		images:  images,
	}
}

// StartGeneration handles POST /api/v1/generate
func (h *InferenceHandler) StartGeneration(c *fiber.Ctx) error {
	var req types.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return respondWithError(c, types.NewValidationError(ErrMsgInvalidReqBody))
	}

	if err := req.Validate(); err != nil {
		return respondWithError(c, err)
	}

	if err := h.service.Start(c.Context(), &req); err != nil {
		return respondWithError(c, err)
	}

	return c.JSON(types.StartResponse{
		Status:  "accepted",
		Message: "Generation started in the background.",
	})
}

// GetGenerationStatus handles GET /api/v1/generate/status. The image handle
// rides along in the status once the job completes.
func (h *InferenceHandler) GetGenerationStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// TerminateGeneration handles POST /api/v1/generate/terminate
func (h *InferenceHandler) TerminateGeneration(c *fiber.Ctx) error {
	if err := h.service.Terminate(); err != nil {
		return respondWithError(c, types.NewConflictError(ErrMsgNoActiveGenerate))
	}
	return c.JSON(types.StartResponse{
		Status:  "accepted",
		Message: "Termination signal sent.",
	})
}

// GetImage handles GET /api/v1/images/:id and returns the PNG payload.
func (h *InferenceHandler) GetImage(c *fiber.Ctx) error {
	payload, err := h.images.Get(c.Params("id"))
	if err != nil {
		return respondWithError(c, types.NewNotFoundError(ErrMsgImageNotFound))
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(payload)
}
