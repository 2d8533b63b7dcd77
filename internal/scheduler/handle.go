package scheduler

import "sync"

// CancelHandle is the cancellation handle exposed per AgentInstance
// (§4.2): invoking Cancel is idempotent, and is a no-op once the agent
// has already reached a terminal state (the dispatcher simply stops
// checking it after that point).
type CancelHandle struct {
	once sync.Once
	ch   chan struct{}
}

// NewCancelHandle creates an un-cancelled handle.
func NewCancelHandle() *CancelHandle {
	return &CancelHandle{ch: make(chan struct{})}
}

// Cancel requests cancellation. Safe to call any number of times.
func (h *CancelHandle) Cancel() {
	h.once.Do(func() { close(h.ch) })
}

// Done returns a channel closed once Cancel has been called.
func (h *CancelHandle) Done() <-chan struct{} {
	return h.ch
}
