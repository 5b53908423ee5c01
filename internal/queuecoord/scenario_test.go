package queuecoord

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/go-syncval/internal/core"
)

// TestScenarioTimelineWaitBeforeSignal is the literal timeline
// wait-before-signal scenario: queue 0 submits wait(T, 5) before queue 1
// has submitted signal(T, 5); the wait stays pending until the signal
// arrives, at which point it resolves against it.
func TestScenarioTimelineWaitBeforeSignal(t *testing.T) {
	sem := NewTimelineSemaphore()

	resolved, against, err := sem.Wait(WaitOp{Queue: core.QueueID(0), Value: 5, Tag: 1})
	require.NoError(t, err)
	require.False(t, resolved, "wait submitted before any sufficient signal must not resolve")
	require.Nil(t, against)
	require.True(t, sem.HasUnresolvedWaits())

	require.NoError(t, sem.Signal(SignalOp{Queue: core.QueueID(1), Value: 5, Tag: 2}))

	resolutions := sem.ResolvePending()
	require.Len(t, resolutions, 1)
	require.Equal(t, uint64(5), resolutions[0].Wait.Value)
	require.Equal(t, core.QueueID(1), resolutions[0].Signal.Queue)
	require.False(t, sem.HasUnresolvedWaits())
}
