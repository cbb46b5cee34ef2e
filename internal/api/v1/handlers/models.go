package handlers

import (
	"bytes"
	"fmt"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/atelierml/atelier/internal/services"
	"github.com/atelierml/atelier/internal/types"
)

// ModelHandler handles HTTP requests for persisted model artifacts
type ModelHandler struct {
	service *services.Artifacts
}

// NewModelHandler creates a model artifact handler.
func NewModelHandler(service *services.Artifacts) *ModelHandler {
	return &ModelHandler{
		service: service,
	}
}

// ListModels handles GET /api/v1/models
func (h *ModelHandler) ListModels(c *fiber.Ctx) error {
	models, err := h.service.List()
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(types.ListModelsResponse{Models: models})
}

// DownloadModel handles GET /api/v1/models/:name/download and streams a zip
// archive of the model directory, built fresh on every call.
func (h *ModelHandler) DownloadModel(c *fiber.Ctx) error {
	name := c.Params("name")

	var buf bytes.Buffer
	if err := h.service.Archive(name, &buf); err != nil {
		return respondWithError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.zip"`, name))
	return c.Send(buf.Bytes())
}

// DeleteModel handles DELETE /api/v1/models/:name
func (h *ModelHandler) DeleteModel(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Params("name")); err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}
