package components

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectorStatePairing(t *testing.T) {
	var state DetectorState
	state.begin(1)
	now := time.Now()

	raw := uniformFrame(4, 4, 10)
	raw.Sequence = 1
	processed := raw.Clone()
	processed.Processed = true
	require.True(t, state.storeRaw(1, raw))
	onset, stored := state.storeCycle(1, raw, processed, true, 2, now)
	assert.True(t, onset)
	assert.True(t, stored)

	// A new raw frame drops the annotated frame of the previous cycle.
	next := uniformFrame(4, 4, 20)
	next.Sequence = 2
	require.True(t, state.storeRaw(1, next))
	snapshot := state.Snapshot()
	assert.Nil(t, snapshot.Processed)
	assert.Equal(t, uint64(2), snapshot.Current.Sequence)
	assert.Equal(t, uint64(1), snapshot.Sequence)
	assert.True(t, snapshot.MotionDetected)

	// Readers of the latest frame keep the overlay of the previous cycle
	// until the new cycle completes.
	frame := state.Frame()
	require.NotNil(t, frame)
	assert.Equal(t, uint64(1), frame.Sequence)
	assert.True(t, frame.Processed)

	onset, stored = state.storeCycle(1, next, next.Clone(), true, 1, now)
	assert.False(t, onset)
	assert.True(t, stored)

	onset, _ = state.storeCycle(1, next, next.Clone(), false, 0, now.Add(time.Second))
	assert.False(t, onset)
	summary := state.Summary()
	assert.False(t, summary.MotionDetected)
	require.NotNil(t, summary.LastMotionTime)
	assert.True(t, summary.LastMotionTime.Equal(now))
	assert.Nil(t, summary.Current)
}

func TestDetectorStateIgnoresOldSessions(t *testing.T) {
	var state DetectorState
	state.begin(1)
	state.begin(2)

	frame := uniformFrame(4, 4, 10)
	assert.False(t, state.storeRaw(1, frame))
	_, stored := state.storeCycle(1, frame, frame, true, 1, time.Now())
	assert.False(t, stored)
	assert.Nil(t, state.Frame())

	state.end(1)
	assert.True(t, state.Summary().Active)
	state.end(2)
	assert.False(t, state.Summary().Active)
	assert.False(t, state.storeRaw(2, frame))
}

func TestDetectorStateSnapshotIsACopy(t *testing.T) {
	var state DetectorState
	state.begin(1)
	frame := uniformFrame(4, 4, 10)
	state.storeRaw(1, frame)

	snapshot := state.Snapshot()
	snapshot.Current.Set(0, 0, 1, 2, 3)
	b, _, _ := state.Frame().At(0, 0)
	assert.Equal(t, byte(10), b)
	assert.False(t, state.Frame().Processed)
}

func TestDetectorStateNewSessionDropsAnnotatedFrame(t *testing.T) {
	var state DetectorState
	state.begin(1)
	frame := uniformFrame(4, 4, 10)
	frame.Sequence = 1
	annotated := frame.Clone()
	annotated.Processed = true
	state.storeRaw(1, frame)
	state.storeCycle(1, frame, annotated, false, 0, time.Now())
	require.True(t, state.Frame().Processed)

	state.begin(2)
	assert.Nil(t, state.Frame())
}
