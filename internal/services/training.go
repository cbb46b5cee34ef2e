// Package services contains the job runners and artifact services that sit
// between the HTTP handlers and the model-execution engine.
package services

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/atelierml/atelier/internal/engine"
	"github.com/atelierml/atelier/internal/jobs"
	"github.com/atelierml/atelier/internal/logger"
	"github.com/atelierml/atelier/internal/types"
)

// Training orchestrates LoRA fine-tuning jobs: stage sequencing, progress
// translation and artifact hand-off. The optimization itself is delegated to
// the engine.
type Training struct {
	trainer   engine.Trainer
	status    *jobs.StatusStore
	ctrl      *jobs.Controller
	modelRoot string
}

// NewTrainingService creates a training service writing artifacts under
// modelRoot.
func NewTrainingService(trainer engine.Trainer, status *jobs.StatusStore, ctrl *jobs.Controller, modelRoot string) *Training {
	return &Training{
		trainer:   trainer,
		status:    status,
		ctrl:      ctrl,
		modelRoot: modelRoot,
	}
}

// Start admits a new training job and returns the planned output directory.
// The request path returns immediately; the run continues on a worker
// goroutine. A conflict error is returned if a training job is already
// active.
func (s *Training) Start(ctx context.Context, req *types.TrainingRequest, dataDir string) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	outputDir := filepath.Join(s.modelRoot, types.ArtifactDirName(req.InstancePrompt, time.Now()))

	cfg := engine.DefaultTrainingConfig()
	cfg.BaseModel = req.BaseModel
	cfg.InstanceDataDir = dataDir
	cfg.OutputDir = outputDir
	cfg.InstancePrompt = req.InstancePrompt
	cfg.MaxTrainSteps = req.Steps
	cfg.LearningRate = req.LearningRate
	cfg.Resolution = req.Resolution
	cfg.TrainBatchSize = req.TrainBatchSize

	err := s.ctrl.Start(ctx, types.JobKindTraining, func(ctx context.Context, token *jobs.Token) {
		s.run(ctx, token, cfg)
	})
	if err != nil {
		return "", err
	}

	logger.Infof("Training started, model will be saved to %s", outputDir)
	return outputDir, nil
}

// Status returns the current training status snapshot.
func (s *Training) Status() types.JobStatus {
	return s.ctrl.Status(types.JobKindTraining)
}

// Terminate requests cooperative cancellation of the active training job.
func (s *Training) Terminate() error {
	return s.ctrl.RequestStop(types.JobKindTraining)
}

func (s *Training) run(ctx context.Context, token *jobs.Token, cfg engine.TrainingConfig) {
	kind := types.JobKindTraining

	s.status.SetState(kind, types.JobStateInitializing, 0, "Initializing training...")

	s.status.SetState(kind, types.JobStateLoadingModels, 5, "Loading models...")
	session, err := s.trainer.LoadModels(ctx, cfg)
	if err != nil {
		logger.Errorf("Training failed while loading models: %v", err)
		s.status.Fail(kind, types.NewExecutionError("failed to load models", err).Error())
		return
	}
	// Loaded models, optimizer state and accelerator memory are released on
	// every exit path.
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warnf("Training session close: %v", cerr)
		}
	}()

	s.status.SetState(kind, types.JobStateTraining, 10, "Starting training loop...")

	for step := 1; step <= cfg.MaxTrainSteps; step++ {
		if err := session.Step(ctx); err != nil {
			logger.Errorf("Training failed at step %d: %v", step, err)
			s.status.Fail(kind, types.NewExecutionError(fmt.Sprintf("training failed at step %d", step), err).Error())
			return
		}

		progress := round2(float64(step) / float64(cfg.MaxTrainSteps) * 100)
		s.status.SetProgress(kind, progress, fmt.Sprintf("Step %d/%d", step, cfg.MaxTrainSteps))

		// Cancellation checkpoint, once per optimization step. Weights
		// trained so far are still saved below.
		if token.Stopped() {
			logger.Infof("Training stopping early at step %d/%d", step, cfg.MaxTrainSteps)
			break
		}
	}

	if err := session.SaveWeights(cfg.OutputDir); err != nil {
		logger.Errorf("Failed to save adapter weights: %v", err)
		s.status.Fail(kind, types.NewStorageError("failed to save adapter weights", err).Error())
		return
	}

	s.status.Complete(kind, fmt.Sprintf("Training complete! Model saved to %s", cfg.OutputDir), "")
	logger.Infof("LoRA weights saved to %s", cfg.OutputDir)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
