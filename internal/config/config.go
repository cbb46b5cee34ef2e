// Package config loads the server configuration from the environment.
package config

import (
	"os"
	"time"

	"github.com/atelierml/atelier/internal/constants"
)

// Default values used when the corresponding environment variable is unset.
const (
	DefaultPort            = "8080"
	DefaultModelRoot       = "lora_models"
	DefaultTrainingDataDir = "training_images"
	DefaultImageTTL        = 30 * time.Minute
)

// Config holds the application configuration
type Config struct {
	// ServerPort is the TCP port the API listens on
	ServerPort string

	// ModelRoot is the directory holding one subdirectory per trained model
	ModelRoot string

	// TrainingDataDir is the staging directory for uploaded training images
	TrainingDataDir string

	// ImageTTL is how long generated images are retained in memory
	ImageTTL time.Duration
}

// Load reads configuration from environment variables, falling back to
// defaults for anything unset or unparsable.
func Load() *Config {
	return &Config{
		ServerPort:      getEnv(constants.EnvServerPort, DefaultPort),
		ModelRoot:       getEnv(constants.EnvModelRoot, DefaultModelRoot),
		TrainingDataDir: getEnv(constants.EnvTrainingDataDir, DefaultTrainingDataDir),
		ImageTTL:        getDuration(constants.EnvImageTTL, DefaultImageTTL),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
