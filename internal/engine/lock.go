package engine

import "sync"

// ExecutionLock guarantees at most one in-flight execution attempt per market.
//
// Detection cycles can schedule back-to-back attempts for the same market
// before the first completes, so Acquire must be a true compare-and-set under
// a mutex — a bare check-then-set would let two attempts through. A losing
// attempt is dropped, not queued; it retries naturally on the next cycle.
type ExecutionLock struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewExecutionLock creates an empty lock table.
func NewExecutionLock() *ExecutionLock {
	return &ExecutionLock{held: make(map[string]bool)}
}

// Acquire marks the market as executing. Returns true iff it was free;
// exactly one of N concurrent callers wins.
func (el *ExecutionLock) Acquire(marketID string) bool {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.held[marketID] {
		return false
	}
	el.held[marketID] = true
	return true
}

// Release frees the market. No-op if it was not held.
func (el *ExecutionLock) Release(marketID string) {
	el.mu.Lock()
	defer el.mu.Unlock()
	delete(el.held, marketID)
}

// IsExecuting reports whether an execution attempt is in flight for the market.
func (el *ExecutionLock) IsExecuting(marketID string) bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.held[marketID]
}
