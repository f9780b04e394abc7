package dashboard

import "sync"

// ReadinessTracker folds the rendered flags of the ordered widgets into one
// signal. The value is recomputed from current state on every call so a
// stale ready is never reported.
type ReadinessTracker struct {
	mu    sync.Mutex
	ready bool
}

// NewReadinessTracker starts not ready.
func NewReadinessTracker() *ReadinessTracker {
	return &ReadinessTracker{}
}

// Recompute evaluates readiness for the given order and reports whether it
// differs from the previous evaluation.
func (t *ReadinessTracker) Recompute(loaded bool, ids []string, rendered func(id string) bool) (ready bool, changed bool) {
	ready = evaluateReadiness(loaded, ids, rendered)
	t.mu.Lock()
	defer t.mu.Unlock()
	changed = ready != t.ready
	t.ready = ready
	return ready, changed
}

// Last returns the result of the most recent evaluation.
func (t *ReadinessTracker) Last() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready
}

// Reset forgets the last evaluation.
func (t *ReadinessTracker) Reset() {
	t.mu.Lock()
	t.ready = false
	t.mu.Unlock()
}

// evaluateReadiness is true once the order is loaded and every ordered id has
// rendered. A loaded empty order is ready.
func evaluateReadiness(loaded bool, ids []string, rendered func(id string) bool) bool {
	if !loaded {
		return false
	}
	for _, id := range ids {
		if !rendered(id) {
			return false
		}
	}
	return true
}
