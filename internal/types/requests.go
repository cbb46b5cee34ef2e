package types

import "fmt"

// TrainingRequest carries the form fields of a start-training request. The
// uploaded image set travels separately as multipart files.
type TrainingRequest struct {
	BaseModel      string  `json:"base_model" form:"baseModel"`
	InstancePrompt string  `json:"instance_prompt" form:"instancePrompt"`
	Steps          int     `json:"steps" form:"steps"`
	LearningRate   float64 `json:"learning_rate" form:"learningRate"`
	Resolution     int     `json:"resolution" form:"resolution"`
	TrainBatchSize int     `json:"train_batch_size" form:"trainBatchSize"`
}

// Validate checks the request fields and returns a validation error on the
// first problem found.
func (r *TrainingRequest) Validate() error {
	if r.BaseModel == "" {
		return NewValidationError("base model is required")
	}
	if r.InstancePrompt == "" {
		return NewValidationError("instance prompt is required")
	}
	if r.Steps <= 0 {
		return NewValidationError(fmt.Sprintf("steps must be positive, got %d", r.Steps))
	}
	if r.LearningRate <= 0 {
		return NewValidationError(fmt.Sprintf("learning rate must be positive, got %g", r.LearningRate))
	}
	if r.Resolution <= 0 {
		return NewValidationError(fmt.Sprintf("resolution must be positive, got %d", r.Resolution))
	}
	if r.TrainBatchSize <= 0 {
		return NewValidationError(fmt.Sprintf("train batch size must be positive, got %d", r.TrainBatchSize))
	}
	return nil
}

// GenerateRequest carries a start-inference request.
type GenerateRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Steps          int    `json:"steps,omitempty"`
}

// Validate checks the request fields.
func (r *GenerateRequest) Validate() error {
	if r.Prompt == "" {
		return NewValidationError("prompt is required")
	}
	if r.Steps < 0 {
		return NewValidationError(fmt.Sprintf("steps must not be negative, got %d", r.Steps))
	}
	return nil
}
