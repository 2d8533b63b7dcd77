package scheduler

import "context"

// Semaphore is the single counting semaphore at the process boundary
// that enforces the global concurrency cap (§4.4, §9): one instance is
// shared by every Job's Scheduler, never hidden behind a per-job limit.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore creates a Semaphore admitting up to n concurrent
// holders.
func NewSemaphore(n int) *Semaphore {
	return &Semaphore{slots: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees one slot. Calling it without a matching successful
// Acquire is a programming error in the caller, not guarded against
// here, matching the plain-channel-semaphore idiom used elsewhere in
// this codebase's worker pool.
func (s *Semaphore) Release() {
	<-s.slots
}

// InUse reports how many slots are currently held, for diagnostics.
func (s *Semaphore) InUse() int {
	return len(s.slots)
}
