// Package constants provides centralized definitions of constants used throughout the application
package constants

// Environment variable names
const (
	// EnvServerPort is the TCP port the API server listens on
	EnvServerPort = "ATELIER_PORT"

	// EnvModelRoot is the directory that holds trained model subdirectories
	EnvModelRoot = "ATELIER_MODEL_ROOT"

	// EnvTrainingDataDir is the staging directory for uploaded training images
	EnvTrainingDataDir = "ATELIER_TRAINING_DATA_DIR"

	// EnvImageTTL is the retention duration for generated images, e.g. "30m"
	EnvImageTTL = "ATELIER_IMAGE_TTL"
)
