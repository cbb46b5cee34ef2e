// Package jobs implements the job orchestration core: the shared status
// snapshots polled by clients, cooperative cancellation tokens, and the
// single-flight controller that owns the worker goroutines.
package jobs

import (
	"sync"

	"github.com/atelierml/atelier/internal/types"
)

// StatusStore holds one mutable JobStatus per job kind. The active worker is
// the only writer; polling clients are concurrent readers. All access goes
// through the store's lock so no reader ever observes a torn snapshot.
type StatusStore struct {
	mu       sync.RWMutex
	statuses map[types.JobKind]*types.JobStatus
}

// NewStatusStore creates a store with both job kinds idle.
func NewStatusStore() *StatusStore {
	return &StatusStore{
		statuses: map[types.JobKind]*types.JobStatus{
			types.JobKindTraining:  {Status: types.JobStateIdle, Message: "Server is ready."},
			types.JobKindInference: {Status: types.JobStateIdle, Message: "Server is ready."},
		},
	}
}

// Snapshot returns a copy of the current status for kind.
func (s *StatusStore) Snapshot(kind types.JobKind) types.JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.statuses[kind]
}

// TryAcquire atomically checks admission for kind and, if no job of that
// kind is active, resets its status to initializing and returns true. This
// is the single-flight gate: the check and the reset happen under one lock
// so two concurrent starts cannot both win.
func (s *StatusStore) TryAcquire(kind types.JobKind, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.statuses[kind]
	if st.Status.Active() {
		return false
	}

	*st = types.JobStatus{
		Status:   types.JobStateInitializing,
		Progress: 0,
		Message:  message,
	}
	return true
}

// SetState moves kind to a new in-progress state. Progress never decreases
// while the job is running; a lower value is ignored.
func (s *StatusStore) SetState(kind types.JobKind, state types.JobState, progress float64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.statuses[kind]
	st.Status = state
	st.Message = message
	if p := clampProgress(progress); p > st.Progress {
		st.Progress = p
	}
}

// SetProgress updates progress and message without changing the state.
func (s *StatusStore) SetProgress(kind types.JobKind, progress float64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.statuses[kind]
	st.Message = message
	if p := clampProgress(progress); p > st.Progress {
		st.Progress = p
	}
}

// Complete moves kind to the completed terminal state. The optional imageID
// is attached for inference jobs.
func (s *StatusStore) Complete(kind types.JobKind, message, imageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.statuses[kind]
	st.Status = types.JobStateCompleted
	st.Progress = 100
	st.Message = message
	st.ImageID = imageID
}

// Fail moves kind to the failed terminal state. Failed is reachable from any
// non-terminal state.
func (s *StatusStore) Fail(kind types.JobKind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.statuses[kind]
	st.Status = types.JobStateFailed
	st.Progress = 0
	st.Message = message
}

// MarkStopRequested flips should_stop if the job is in a state that accepts
// cancellation, and reports whether it did. The flag stays set until the job
// reaches a terminal state; only the next TryAcquire clears it.
func (s *StatusStore) MarkStopRequested(kind types.JobKind, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.statuses[kind]
	if !st.Status.Active() {
		return false
	}

	st.ShouldStop = true
	st.Message = message
	return true
}

func clampProgress(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
