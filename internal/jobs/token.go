package jobs

import "sync/atomic"

// Token is the cooperative cancellation flag handed to a worker. The worker
// observes it once per unit of work, which bounds cancellation latency to
// the cost of one engine step. It is never preemptive.
type Token struct {
	stopped atomic.Bool
}

// Stop requests cancellation. Safe to call from any goroutine, any number of
// times.
func (t *Token) Stop() {
	t.stopped.Store(true)
}

// Stopped reports whether cancellation has been requested.
func (t *Token) Stopped() bool {
	return t.stopped.Load()
}

// reset clears the flag for a fresh run. Only the controller calls this,
// before dispatching a new worker.
func (t *Token) reset() {
	t.stopped.Store(false)
}
