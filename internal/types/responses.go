package types

// ErrorResponse represents an error response
type ErrorResponse struct {
	// Error message describing what went wrong
	Error string `json:"error"`

	// Kind of the error, one of the ErrorKind values
	Kind ErrorKind `json:"kind,omitempty"`
}

// StartResponse represents the response to an accepted start request
type StartResponse struct {
	// Status of the admission, always "accepted"
	Status string `json:"status"`

	// Message describing what was started
	Message string `json:"message"`

	// OutputDir is the planned artifact directory for training jobs
	OutputDir string `json:"output_dir,omitempty"`
}

// ListModelsResponse represents the response from the list-models endpoint
type ListModelsResponse struct {
	// Models holds the persisted artifacts, newest first
	Models []ModelArtifact `json:"models"`
}

// ErrInvalidInput builds an ErrorResponse for a validation failure
func ErrInvalidInput(msg string) ErrorResponse {
	return ErrorResponse{Error: msg, Kind: ErrKindValidation}
}

// ErrFromError builds an ErrorResponse preserving the error kind
func ErrFromError(err error) ErrorResponse {
	return ErrorResponse{Error: err.Error(), Kind: KindOf(err)}
}
