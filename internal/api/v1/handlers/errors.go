// Package handlers provides HTTP request handling
package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/atelierml/atelier/internal/types"
)

// Common error messages
const (
	ErrMsgInvalidReqBody = "Invalid request body"
)

// Job error messages
const (
	ErrMsgImagesRequired   = "At least one training image is required"
	ErrMsgImageStageFailed = "Failed to store uploaded training images"
	ErrMsgNoActiveTraining = "No active training to terminate"
	ErrMsgNoActiveGenerate = "No active generation to terminate"
	ErrMsgImageNotFound    = "Image not found"
)

// statusForKind maps an error kind to its HTTP status code.
func statusForKind(kind types.ErrorKind) int {
	switch kind {
	case types.ErrKindValidation:
		return fiber.StatusBadRequest
	case types.ErrKindConflict:
		return fiber.StatusConflict
	case types.ErrKindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// respondWithError writes err as a JSON error response with the status code
// implied by its kind.
func respondWithError(c *fiber.Ctx, err error) error {
	return c.Status(statusForKind(types.KindOf(err))).JSON(types.ErrFromError(err))
}
