package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadinessRequiresLoadedOrder(t *testing.T) {
	tracker := NewReadinessTracker()
	rendered := func(string) bool { return true }

	ready, changed := tracker.Recompute(false, []string{"a"}, rendered)
	assert.False(t, ready)
	assert.False(t, changed)

	ready, changed = tracker.Recompute(true, []string{"a"}, rendered)
	assert.True(t, ready)
	assert.True(t, changed)
	assert.True(t, tracker.Last())
}

func TestReadinessEmptyLoadedOrderIsReady(t *testing.T) {
	tracker := NewReadinessTracker()
	ready, _ := tracker.Recompute(true, nil, func(string) bool { return false })
	assert.True(t, ready)
}

func TestReadinessDropsWhenNewWidgetAppears(t *testing.T) {
	tracker := NewReadinessTracker()
	flags := map[string]bool{"a": true, "b": true}
	rendered := func(id string) bool { return flags[id] }

	ready, _ := tracker.Recompute(true, []string{"a", "b"}, rendered)
	assert.True(t, ready)

	ready, changed := tracker.Recompute(true, []string{"a", "b", "dynamic-1"}, rendered)
	assert.False(t, ready)
	assert.True(t, changed)

	flags["dynamic-1"] = true
	ready, changed = tracker.Recompute(true, []string{"a", "b", "dynamic-1"}, rendered)
	assert.True(t, ready)
	assert.True(t, changed)

	_, changed = tracker.Recompute(true, []string{"a", "b", "dynamic-1"}, rendered)
	assert.False(t, changed)

	tracker.Reset()
	assert.False(t, tracker.Last())
}
