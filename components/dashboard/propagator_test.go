package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type propagatorFixture struct {
	registry   *Registry
	state      *SharedState
	propagator *Propagator
	handles    map[string]*fakeHandle
	logs       *observer.ObservedLogs
}

func newPropagatorFixture(t *testing.T, ids ...string) *propagatorFixture {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	registry := NewRegistry(logger)
	state := newDefaultState(t)
	f := &propagatorFixture{
		registry:   registry,
		state:      state,
		propagator: NewPropagator(registry, state, 2, logger),
		handles:    map[string]*fakeHandle{},
		logs:       logs,
	}
	for _, id := range ids {
		h := newFakeHandle()
		require.True(t, registry.Register(StaticWidget(id), h))
		f.handles[id] = h
	}
	return f
}

func TestPropagateSingleSkipsSource(t *testing.T) {
	f := newPropagatorFixture(t, "a", "b", "c")
	desc := FilterDescriptor{Table: "Store", Column: "Store", Value: "Barba"}

	result := f.propagator.PropagateSingle(context.Background(), "a", desc)
	require.NoError(t, result.Err())
	assert.Equal(t, []string{"b", "c"}, result.TargetIDs())
	assert.Equal(t, 0, f.handles["a"].setCalls())
	assert.Equal(t, []FilterDescriptor{desc}, f.handles["b"].lastFilters())
	assert.Equal(t, []FilterDescriptor{desc}, f.handles["c"].lastFilters())
}

func TestPropagateSingleDropsInvalidDescriptors(t *testing.T) {
	f := newPropagatorFixture(t, "a", "b")
	for _, desc := range []FilterDescriptor{
		{Table: "undefined", Column: "Store", Value: "Barba"},
		{Table: "null", Column: "Store", Value: "Barba"},
		{Table: "Store", Column: "", Value: "Barba"},
		{Table: "Store", Column: "Store", Value: ""},
	} {
		result := f.propagator.PropagateSingle(context.Background(), "a", desc)
		assert.Empty(t, result.Targets)
	}
	assert.Equal(t, 0, f.handles["b"].setCalls())
}

func TestPropagateSingleIsBestEffort(t *testing.T) {
	f := newPropagatorFixture(t, "a", "b", "c", "d")
	f.handles["b"].setErr = errors.New("visual gone")
	f.handles["c"].panicOn = true
	desc := FilterDescriptor{Table: "Store", Column: "Store", Value: "Barba"}

	result := f.propagator.PropagateSingle(context.Background(), "a", desc)
	assert.ElementsMatch(t, []string{"b", "c"}, result.Failed())
	assert.Error(t, result.Err())
	assert.Equal(t, []FilterDescriptor{desc}, f.handles["d"].lastFilters())
	assert.Equal(t, 2, f.logs.FilterMessage("embed call failed").Len())
}

func TestApplySharedStateTargetsEveryWidget(t *testing.T) {
	f := newPropagatorFixture(t, "a", "b")
	require.NoError(t, f.state.Set(SlotCategory, "Barba", bindingStore))
	require.NoError(t, f.state.Set(SlotSegment, "SMB", bindingProductSegment))

	result := f.propagator.ApplySharedState(context.Background())
	want := []FilterDescriptor{
		{Table: "Store", Column: "Store", Value: "Barba"},
		{Table: "Product", Column: "Segment", Value: "SMB"},
	}
	assert.Equal(t, []string{"a", "b"}, result.TargetIDs())
	assert.Equal(t, want, f.handles["a"].lastFilters())
	assert.Equal(t, want, f.handles["b"].lastFilters())
}

func TestApplySharedStateWithNoFiltersSendsEmptyList(t *testing.T) {
	f := newPropagatorFixture(t, "a")

	f.propagator.ApplySharedState(context.Background())
	require.Equal(t, 1, f.handles["a"].setCalls())
	assert.NotNil(t, f.handles["a"].lastFilters())
	assert.Empty(t, f.handles["a"].lastFilters())
}

func TestClearAllIsIdempotent(t *testing.T) {
	f := newPropagatorFixture(t, "a", "b")
	require.NoError(t, f.state.Set(SlotCategory, "Barba", bindingStore))

	f.propagator.ClearAll(context.Background())
	first := f.state.Snapshot()
	f.propagator.ClearAll(context.Background())

	assert.Equal(t, first, f.state.Snapshot())
	assert.Empty(t, first.Filters())
	assert.Equal(t, 2, f.handles["a"].removeCalls())
	assert.Equal(t, 2, f.handles["b"].removeCalls())
}

func TestClearFromSourceReappliesRemainingSlots(t *testing.T) {
	f := newPropagatorFixture(t, "store-sales", "segment-share", "kpi-summary")
	require.NoError(t, f.state.Set(SlotCategory, "Barba", bindingStore))
	require.NoError(t, f.state.Set(SlotSegment, "SMB", bindingProductSegment))

	result := f.propagator.ClearFromSource(context.Background(), "store-sales", SlotCategory)
	assert.Equal(t, []Slot{SlotCategory}, result.Reset)
	assert.Equal(t, []string{"segment-share", "kpi-summary"}, result.Removed.TargetIDs())
	require.NotNil(t, result.Reapplied)
	assert.Equal(t, []string{"store-sales", "segment-share", "kpi-summary"}, result.Reapplied.TargetIDs())

	want := []FilterDescriptor{{Table: "Product", Column: "Segment", Value: "SMB"}}
	assert.Equal(t, want, f.handles["kpi-summary"].lastFilters())
	assert.Equal(t, 0, f.handles["store-sales"].removeCalls())
}

func TestClearFromSourceWithoutRemainingSlots(t *testing.T) {
	f := newPropagatorFixture(t, "store-sales", "kpi-summary")
	require.NoError(t, f.state.Set(SlotCategory, "Barba", bindingStore))

	result := f.propagator.ClearFromSource(context.Background(), "store-sales", SlotCategory)
	assert.Nil(t, result.Reapplied)
	assert.Equal(t, 1, f.handles["kpi-summary"].removeCalls())
	assert.Equal(t, 0, f.handles["kpi-summary"].setCalls())
}

func TestDispatchHonoursCancelledContext(t *testing.T) {
	f := newPropagatorFixture(t, "a", "b")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := f.propagator.PropagateSingle(ctx, "a", FilterDescriptor{Table: "Store", Column: "Store", Value: "Barba"})
	assert.Equal(t, []string{"b"}, result.Failed())
	assert.ErrorIs(t, result.Err(), context.Canceled)
}
