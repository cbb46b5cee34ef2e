package services

import (
	"context"
	"fmt"

	"github.com/atelierml/atelier/internal/engine"
	"github.com/atelierml/atelier/internal/jobs"
	"github.com/atelierml/atelier/internal/logger"
	"github.com/atelierml/atelier/internal/types"
)

// Inference orchestrates image-generation jobs. Sampling is delegated to the
// engine; the finished image lands in the image store and its handle is
// attached to the completed status.
type Inference struct {
	sampler engine.Sampler
	status  *jobs.StatusStore
	ctrl    *jobs.Controller
	images  *Images
}

// NewInferenceService creates an inference service storing results in images.
func NewInferenceService(sampler engine.Sampler, status *jobs.StatusStore, ctrl *jobs.Controller, images *Images) *Inference {
	return &Inference{
		sampler: sampler,
		status:  status,
		ctrl:    ctrl,
		images:  images,
	}
}

// Start admits a new generation job. Returns a conflict error if one is
// already active.
func (s *Inference) Start(ctx context.Context, req *types.GenerateRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	cfg := engine.GenerateConfig{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Steps:          req.Steps,
	}

	err := s.ctrl.Start(ctx, types.JobKindInference, func(ctx context.Context, token *jobs.Token) {
		s.run(ctx, token, cfg)
	})
	if err != nil {
		return err
	}

	logger.Infof("Generation started for prompt %q", req.Prompt)
	return nil
}

// Status returns the current generation status snapshot.
func (s *Inference) Status() types.JobStatus {
	return s.ctrl.Status(types.JobKindInference)
}

// Terminate requests cooperative cancellation of the active generation job.
func (s *Inference) Terminate() error {
	return s.ctrl.RequestStop(types.JobKindInference)
}

func (s *Inference) run(ctx context.Context, token *jobs.Token, cfg engine.GenerateConfig) {
	kind := types.JobKindInference

	s.status.SetState(kind, types.JobStateInitializing, 0, "Initializing generation...")

	s.status.SetState(kind, types.JobStateLoadingModels, 5, "Loading generation pipeline...")
	session, err := s.sampler.LoadPipeline(ctx, cfg)
	if err != nil {
		logger.Errorf("Generation failed while loading pipeline: %v", err)
		s.status.Fail(kind, types.NewExecutionError("failed to load generation pipeline", err).Error())
		return
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warnf("Sample session close: %v", cerr)
		}
	}()

	total := session.Steps()
	s.status.SetState(kind, types.JobStateProcessing, 10, "Generating image...")

	for i := 0; i < total; i++ {
		if err := session.Step(ctx, i); err != nil {
			logger.Errorf("Generation failed at step %d: %v", i+1, err)
			s.status.Fail(kind, types.NewExecutionError(fmt.Sprintf("generation failed at step %d", i+1), err).Error())
			return
		}

		progress := float64(i+1) / float64(total) * 100
		s.status.SetProgress(kind, progress, fmt.Sprintf("Step %d/%d", i+1, total))

		// Cancellation checkpoint, once per sampling step. The image decoded
		// from the steps run so far is still delivered below.
		if token.Stopped() {
			logger.Infof("Generation stopping early at step %d/%d", i+1, total)
			break
		}
	}

	payload, err := session.Encode()
	if err != nil {
		logger.Errorf("Failed to encode generated image: %v", err)
		s.status.Fail(kind, types.NewExecutionError("failed to encode generated image", err).Error())
		return
	}

	imageID := s.images.Put(payload)
	s.status.Complete(kind, "Image generated.", imageID)
	logger.Infof("Generated image stored with id %s (%d bytes)", imageID, len(payload))
}
