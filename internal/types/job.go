package types

// JobKind identifies which of the two long-running job pipelines a status or
// control request refers to.
type JobKind string

const (
	// JobKindTraining is the LoRA fine-tuning pipeline
	JobKindTraining JobKind = "training"
	// JobKindInference is the image-generation pipeline
	JobKindInference JobKind = "inference"
)

// JobState represents the current state of a job pipeline
type JobState string

const (
	// JobStateIdle means no job has run yet since process start
	JobStateIdle JobState = "idle"
	// JobStateInitializing means a start request was accepted and the worker is spinning up
	JobStateInitializing JobState = "initializing"
	// JobStateLoadingModels means the worker is acquiring models from the engine
	JobStateLoadingModels JobState = "loading_models"
	// JobStateTraining means the optimization loop is running
	JobStateTraining JobState = "training"
	// JobStateProcessing means the sampling loop is running
	JobStateProcessing JobState = "processing"
	// JobStateCompleted means the last job finished successfully
	JobStateCompleted JobState = "completed"
	// JobStateFailed means the last job stopped on an error
	JobStateFailed JobState = "failed"
)

// Terminal reports whether the state is a resting state from which a new job
// may be started.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateIdle, JobStateCompleted, JobStateFailed:
		return true
	}
	return false
}

// Active reports whether a worker currently owns the pipeline.
func (s JobState) Active() bool {
	return !s.Terminal()
}

// JobStatus is the snapshot shared between the worker and polling clients.
// There is exactly one per job kind; it is overwritten in place for the
// lifetime of the process.
type JobStatus struct {
	// Status is the current state of the pipeline
	Status JobState `json:"status"`

	// Progress is the completion percentage, 0-100
	Progress float64 `json:"progress"`

	// Message is a human-readable description of the current stage
	Message string `json:"message"`

	// ShouldStop is true once cancellation has been requested and stays true
	// until the job reaches a terminal state
	ShouldStop bool `json:"should_stop"`

	// ImageID carries the generated image handle once an inference job
	// completes; empty otherwise
	ImageID string `json:"image_id,omitempty"`
}
