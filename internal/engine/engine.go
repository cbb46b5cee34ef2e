// Package engine defines the boundary to the external model-execution
// library. The numerical work (forward/backward passes, optimizer updates,
// diffusion sampling) happens behind these interfaces; the rest of the
// server only sequences stages, reports progress and observes cancellation.
package engine

import "context"

// TrainingConfig is the immutable record of all parameters needed to run one
// fine-tuning job. It is constructed once per start request and never
// mutated.
type TrainingConfig struct {
	// BaseModel is the pretrained model reference to fine-tune
	BaseModel string

	// InstanceDataDir is the directory holding the uploaded training images
	InstanceDataDir string

	// OutputDir is where the trained adapter weights will be written
	OutputDir string

	// InstancePrompt is the prompt associated with the training images
	InstancePrompt string

	// MaxTrainSteps is the number of optimization steps to run
	MaxTrainSteps int

	// LearningRate for the optimizer
	LearningRate float64

	// Resolution the training images are resized to
	Resolution int

	// TrainBatchSize is the number of images per optimization step
	TrainBatchSize int

	// Defaults below mirror the trainer's fixed settings for local runs.

	// GradientAccumulationSteps between optimizer updates
	GradientAccumulationSteps int

	// GradientCheckpointing trades compute for memory
	GradientCheckpointing bool

	// LRScheduler names the learning-rate schedule
	LRScheduler string

	// MixedPrecision mode; "no" is required on some local accelerators
	MixedPrecision string

	// Rank of the LoRA adapter
	Rank int
}

// DefaultTrainingConfig returns a TrainingConfig with the fixed local-run
// defaults applied; callers fill in the per-request fields.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		GradientAccumulationSteps: 1,
		GradientCheckpointing:     true,
		LRScheduler:               "constant",
		MixedPrecision:            "no",
		Rank:                      4,
	}
}

// GenerateConfig carries the parameters of one image-generation job.
type GenerateConfig struct {
	// Prompt to generate from
	Prompt string

	// NegativePrompt steers the sampler away from the described content
	NegativePrompt string

	// Steps is the number of sampling steps; the engine applies its own
	// default when zero
	Steps int
}

// Trainer acquires the models and data needed for a fine-tuning run.
type Trainer interface {
	// LoadModels loads the base model, tokenizer and dataset described by
	// cfg and returns a session owning them.
	LoadModels(ctx context.Context, cfg TrainingConfig) (TrainSession, error)
}

// TrainSession owns the loaded models and optimizer state for one training
// run. It must be closed on every exit path.
type TrainSession interface {
	// Step performs one optimization step: gradient computation and
	// parameter update.
	Step(ctx context.Context) error

	// SaveWeights persists the adapter weights trained so far into dir.
	SaveWeights(dir string) error

	// Close releases loaded models, optimizer state and accelerator memory.
	Close() error
}

// Sampler acquires the generation pipeline for an inference run.
type Sampler interface {
	// LoadPipeline loads the generation model and returns a session owning it.
	LoadPipeline(ctx context.Context, cfg GenerateConfig) (SampleSession, error)
}

// SampleSession owns the loaded pipeline for one image-generation run. It
// must be closed on every exit path.
type SampleSession interface {
	// Steps returns the total number of sampling steps the session will run.
	Steps() int

	// Step performs one sampling step.
	Step(ctx context.Context, i int) error

	// Encode renders the produced image and returns it as a PNG payload.
	Encode() ([]byte, error)

	// Close releases the pipeline and accelerator memory.
	Close() error
}
