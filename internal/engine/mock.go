package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// MockEngine is a deterministic in-process implementation of Trainer and
// Sampler. It is the default wiring when no real model-execution backend is
// configured and is used by the test suites.
type MockEngine struct {
	// StepDelay is slept on every unit of work to simulate compute cost
	StepDelay time.Duration

	// SampleSteps is the number of sampling steps a generation run performs
	SampleSteps int

	// FailLoad makes LoadModels / LoadPipeline return an error
	FailLoad bool

	// FailAtStep makes the given 1-based step return an error; 0 disables
	FailAtStep int
}

var (
	_ Trainer = &MockEngine{}
	_ Sampler = &MockEngine{}
)

// NewMockEngine creates a MockEngine with defaults suitable for local runs.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		StepDelay:   10 * time.Millisecond,
		SampleSteps: 25,
	}
}

// LoadModels mocks acquiring the base model and dataset.
func (e *MockEngine) LoadModels(_ context.Context, cfg TrainingConfig) (TrainSession, error) {
	if e.FailLoad {
		return nil, fmt.Errorf("mock: failed to load base model %q", cfg.BaseModel)
	}
	return &mockTrainSession{engine: e, cfg: cfg}, nil
}

// LoadPipeline mocks acquiring the generation pipeline.
func (e *MockEngine) LoadPipeline(_ context.Context, cfg GenerateConfig) (SampleSession, error) {
	if e.FailLoad {
		return nil, fmt.Errorf("mock: failed to load generation pipeline")
	}
	steps := cfg.Steps
	if steps <= 0 {
		steps = e.SampleSteps
	}
	return &mockSampleSession{engine: e, cfg: cfg, steps: steps}, nil
}

type mockTrainSession struct {
	engine *MockEngine
	cfg    TrainingConfig
	step   int
	closed bool
}

func (s *mockTrainSession) Step(_ context.Context) error {
	s.step++
	if s.engine.FailAtStep > 0 && s.step >= s.engine.FailAtStep {
		return fmt.Errorf("mock: loss diverged at step %d", s.step)
	}
	time.Sleep(s.engine.StepDelay)
	return nil
}

func (s *mockTrainSession) SaveWeights(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	weights := fmt.Sprintf("mock adapter weights\nprompt=%s\nsteps_trained=%d\n", s.cfg.InstancePrompt, s.step)
	return os.WriteFile(filepath.Join(dir, "pytorch_lora_weights.safetensors"), []byte(weights), 0o644)
}

func (s *mockTrainSession) Close() error {
	s.closed = true
	return nil
}

type mockSampleSession struct {
	engine *MockEngine
	cfg    GenerateConfig
	steps  int
	done   int
	closed bool
}

func (s *mockSampleSession) Steps() int {
	return s.steps
}

func (s *mockSampleSession) Step(_ context.Context, i int) error {
	if s.engine.FailAtStep > 0 && i+1 >= s.engine.FailAtStep {
		return fmt.Errorf("mock: sampler error at step %d", i+1)
	}
	time.Sleep(s.engine.StepDelay)
	s.done++
	return nil
}

func (s *mockSampleSession) Encode() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	shade := uint8(len(s.cfg.Prompt) % 256)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: 128, B: 255 - shade, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *mockSampleSession) Close() error {
	s.closed = true
	return nil
}
