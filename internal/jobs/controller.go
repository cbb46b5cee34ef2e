package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/atelierml/atelier/internal/logger"
	"github.com/atelierml/atelier/internal/types"
)

// RunFunc is the body of a job worker. It runs on its own goroutine, reports
// through the StatusStore it was constructed with, and must observe token at
// every unit-of-work boundary. It is responsible for setting a terminal
// status before returning; the controller only intervenes on panic.
type RunFunc func(ctx context.Context, token *Token)

// Controller enforces single-flight admission per job kind and owns the
// worker goroutines. Start, Status and RequestStop all return immediately;
// only the worker performs long-running work.
type Controller struct {
	// mu orders admission against stop requests, so a stop aimed at one run
	// can never fire into the token after the next run has reset it.
	mu     sync.Mutex
	store  *StatusStore
	tokens map[types.JobKind]*Token
}

// NewController creates a controller over the given status store.
func NewController(store *StatusStore) *Controller {
	return &Controller{
		store: store,
		tokens: map[types.JobKind]*Token{
			types.JobKindTraining:  {},
			types.JobKindInference: {},
		},
	}
}

// Status returns an atomic snapshot of the current status for kind.
func (c *Controller) Status(kind types.JobKind) types.JobStatus {
	return c.store.Snapshot(kind)
}

// Start admits a new job of the given kind. If a job of that kind is already
// active it returns a conflict error and leaves the status untouched.
// Otherwise the status is reset to initializing, the cancellation token is
// cleared, and run is dispatched on its own goroutine.
func (c *Controller) Start(ctx context.Context, kind types.JobKind, run RunFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.store.TryAcquire(kind, "Request received...") {
		return types.NewConflictError(fmt.Sprintf("a %s job is already in progress", kind))
	}

	token := c.tokens[kind]
	token.reset()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorWithFields("Job worker panicked", map[string]interface{}{
					"kind":  kind,
					"panic": fmt.Sprintf("%v", r),
				})
				c.store.Fail(kind, fmt.Sprintf("internal error: %v", r))
			}
		}()
		run(ctx, token)
	}()

	return nil
}

// RequestStop requests cooperative cancellation of the active job of the
// given kind. Accepted only while the job is in a non-terminal state; the
// worker will observe the token at its next checkpoint.
func (c *Controller) RequestStop(kind types.JobKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.store.MarkStopRequested(kind, "Termination signal received. Finishing current step...") {
		return types.NewConflictError(fmt.Sprintf("no active %s job to terminate", kind))
	}

	c.tokens[kind].Stop()
	logger.Infof("Termination requested for %s job", kind)
	return nil
}
