package dashboard

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	var last atomic.Int32
	for i := range 5 {
		d.Trigger(func() {
			calls.Add(1)
			last.Store(int32(i))
		})
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(4), last.Load())
	d.Wait()
}

func TestDebouncerFlushRunsImmediately(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDebouncer(time.Hour)
	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	assert.True(t, d.Pending())

	assert.True(t, d.Flush())
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, d.Pending())
	assert.False(t, d.Flush())
	d.Wait()
}

func TestDebouncerStopDropsPendingCall(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDebouncer(10 * time.Millisecond)
	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })
	d.Wait()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, d.Pending())
}
