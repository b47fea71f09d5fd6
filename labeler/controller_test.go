package labeler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demo-labeler/models"
)

func TestSeekDoesNotWriteOrTouchTimer(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 10, "agentview")
	c, tickers := newTestController(t, remote)
	loadSession(t, c, "demo_0")

	require.True(t, c.Seek(6))
	c.Flush()

	assert.Equal(t, 6, c.Cursor())
	assert.Empty(t, remote.recordedWrites())
	assert.False(t, c.Playing())
	assert.Equal(t, 0, tickers.count())

	require.True(t, c.Play())
	require.True(t, c.Seek(6))
	assert.True(t, c.Playing())
	assert.Equal(t, 1, tickers.count())
}

func TestSeekClampsAndRefusesEmptySession(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 10, "agentview")
	c, _ := newTestController(t, remote)

	assert.False(t, c.Seek(3), "no frames before the length is known")
	assert.Equal(t, 0, c.Cursor())

	loadSession(t, c, "demo_0")
	require.True(t, c.Seek(42))
	assert.Equal(t, 9, c.Cursor())
	require.True(t, c.Seek(-5))
	assert.Equal(t, 0, c.Cursor())
	require.True(t, c.Step(4))
	assert.Equal(t, 4, c.Cursor())
	require.True(t, c.Step(-10))
	assert.Equal(t, 0, c.Cursor())
}

func TestJumpToFrameRegardlessOfPlayback(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 10, "agentview")
	c, _ := newTestController(t, remote)
	loadSession(t, c, "demo_0")

	require.True(t, c.JumpToFrame(2))
	assert.Equal(t, 2, c.Cursor())

	require.True(t, c.Seek(7))
	require.True(t, c.Play())
	require.True(t, c.JumpToFrame(2))
	assert.Equal(t, 2, c.Cursor())
	assert.True(t, c.Playing())

	c.Tick()
	c.Flush()
	assert.Equal(t, 3, c.Cursor())
	assert.Equal(t, []labelWrite{{demo: "demo_0", t: 2, label: models.LabelGood}}, remote.recordedWrites())
}

func TestClearAllResetsEveryFrame(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 8, "agentview")
	c, _ := newTestController(t, remote)
	loadSession(t, c, "demo_0")

	require.NoError(t, c.LabelFrame(1, models.LabelGood))
	require.NoError(t, c.LabelFrame(5, models.LabelBad))

	require.NoError(t, waitTask(t, c.ClearAll()))

	snap := c.Snapshot()
	assert.Equal(t, make([]models.Label, 8), snap.Labels)
	assert.Equal(t, 8, snap.Unset)
	assert.Equal(t, []string{"demo_0"}, remote.recordedClears())
}

func TestClearAllFailureKeepsMirror(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 4, "agentview")
	remote.clearErr = errors.New("disk full")
	c, _ := newTestController(t, remote)
	loadSession(t, c, "demo_0")

	require.NoError(t, c.LabelFrame(2, models.LabelBad))
	err := waitTask(t, c.ClearAll())

	assert.Error(t, err)
	assert.Equal(t, models.LabelBad, c.Snapshot().Labels[2])
}

func TestClearAllWithoutSession(t *testing.T) {
	remote := newFakeRemote()
	c, _ := newTestController(t, remote)

	err := waitTask(t, c.ClearAll())

	assert.ErrorIs(t, err, ErrNoSession)
	assert.Empty(t, remote.recordedClears())
}

func TestLabelFrameValidation(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 3, "agentview")
	c, _ := newTestController(t, remote)

	assert.ErrorIs(t, c.LabelFrame(0, models.LabelGood), ErrNoSession)

	loadSession(t, c, "demo_0")
	assert.ErrorIs(t, c.LabelFrame(3, models.LabelGood), ErrFrameOutOfRange)
	assert.ErrorIs(t, c.LabelFrame(-1, models.LabelGood), ErrFrameOutOfRange)
	assert.ErrorIs(t, c.LabelFrame(0, models.Label(7)), ErrInvalidLabel)

	require.NoError(t, c.LabelFrame(2, models.LabelBad))
	require.NoError(t, c.LabelFrame(2, models.LabelUnset))
	c.Flush()
	assert.Equal(t, []labelWrite{
		{demo: "demo_0", t: 2, label: models.LabelBad},
		{demo: "demo_0", t: 2, label: models.LabelUnset},
	}, remote.recordedWrites())
}

func TestLabelCurrentUsesMode(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 5, "agentview")
	c, _ := newTestController(t, remote)
	loadSession(t, c, "demo_0")

	require.True(t, c.Seek(4))
	require.NoError(t, c.SetMode(ModeBad))
	require.NoError(t, c.LabelCurrent())
	c.Flush()

	assert.Equal(t, models.LabelBad, c.Snapshot().Labels[4])
	assert.Equal(t, []labelWrite{{demo: "demo_0", t: 4, label: models.LabelBad}}, remote.recordedWrites())
}

func TestRemoteWriteFailureKeepsMirror(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 5, "agentview")
	c, _ := newTestController(t, remote)
	loadSession(t, c, "demo_0")

	// the service forgets the demo, so writes start failing
	remote.mu.Lock()
	delete(remote.demos, "demo_0")
	remote.mu.Unlock()

	require.NoError(t, c.LabelFrame(1, models.LabelGood))
	c.Flush()

	assert.Equal(t, models.LabelGood, c.Snapshot().Labels[1])
}

func TestSetModeRejectsUnset(t *testing.T) {
	c, _ := newTestController(t, newFakeRemote())

	assert.ErrorIs(t, c.SetMode(Mode(models.LabelUnset)), ErrInvalidMode)
	assert.Equal(t, ModeGood, c.Mode())

	_, err := ModeFromLabel(models.LabelUnset)
	assert.ErrorIs(t, err, ErrInvalidMode)
	m, err := ModeFromLabel(models.LabelBad)
	require.NoError(t, err)
	assert.Equal(t, ModeBad, m)
}

func TestCameraSelection(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 5, "agentview", "robot0_eye_in_hand", "robot1_eye_in_hand")
	c, _ := newTestController(t, remote)
	loadSession(t, c, "demo_0")

	assert.Equal(t, "agentview", c.Snapshot().Camera, "first camera is selected by default")

	assert.ErrorIs(t, c.SetCamera("sideview"), ErrUnknownCamera)
	require.NoError(t, c.SetCamera("robot1_eye_in_hand"))

	cam, ok := c.CycleCamera()
	require.True(t, ok)
	assert.Equal(t, "agentview", cam)
}

func TestPreferredCameraSurvivesReload(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 5, "agentview", "robot0_eye_in_hand")
	remote.addDemo("demo_1", 5, "agentview", "robot0_eye_in_hand")
	c, _ := newTestController(t, remote)

	c.PreferCamera("robot0_eye_in_hand")
	loadSession(t, c, "demo_0")
	assert.Equal(t, "robot0_eye_in_hand", c.Snapshot().Camera)

	require.NoError(t, c.SetCamera("agentview"))
	loadSession(t, c, "demo_1")
	assert.Equal(t, "agentview", c.Snapshot().Camera)
}

func TestChangesAreCoalesced(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 5, "agentview")
	c, _ := newTestController(t, remote)
	loadSession(t, c, "demo_0")

	// drain anything left by the load
	select {
	case <-c.Changes():
	default:
	}

	c.Seek(1)
	c.Seek(2)
	c.Seek(3)

	select {
	case <-c.Changes():
	case <-time.After(time.Second):
		t.Fatal("expected a change notification")
	}
	select {
	case <-c.Changes():
		t.Fatal("bursts must be coalesced into one notification")
	default:
	}
}

func TestCloseDrainsPendingWrites(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 5, "agentview")
	c := NewController(remote, Options{})
	loadSession(t, c, "demo_0")

	require.NoError(t, c.LabelFrame(0, models.LabelGood))
	c.Close()

	assert.Len(t, remote.recordedWrites(), 1)
	err := c.LabelFrame(1, models.LabelGood)
	require.NoError(t, err, "local labeling keeps working after close")
	assert.Len(t, remote.recordedWrites(), 1, "no remote call is issued after close")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.ErrorIs(t, c.SelectSession("demo_0").Wait(ctx), context.Canceled)
}

func TestSuccessiveWritesReachRemoteInOrder(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 4, "agentview")
	c, _ := newTestController(t, remote)
	loadSession(t, c, "demo_0")

	for i := 0; i < 50; i++ {
		require.NoError(t, c.LabelFrame(2, models.LabelBad))
		require.NoError(t, c.LabelFrame(2, models.LabelUnset))
		require.NoError(t, c.LabelFrame(3, models.LabelUnset))
		require.NoError(t, c.LabelFrame(3, models.LabelGood))
	}
	c.Flush()

	assert.Equal(t, []models.Label{0, 0, 0, 1}, c.Snapshot().Labels)
	assert.Equal(t, c.Snapshot().Labels, remote.storedLabels("demo_0"))
}

func TestUnsetCurrent(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 5, "agentview")
	c, _ := newTestController(t, remote)
	loadSession(t, c, "demo_0")

	require.True(t, c.Seek(3))
	require.NoError(t, c.LabelCurrent())
	require.NoError(t, c.UnsetCurrent())
	c.Flush()

	assert.Equal(t, models.LabelUnset, c.Snapshot().Labels[3])
	assert.Equal(t, []labelWrite{
		{demo: "demo_0", t: 3, label: models.LabelGood},
		{demo: "demo_0", t: 3, label: models.LabelUnset},
	}, remote.recordedWrites())

	c.SelectSession("")
	assert.ErrorIs(t, c.UnsetCurrent(), ErrNoSession)
}

func TestWritesDuringClearSurviveIt(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 4, "agentview")
	c, _ := newTestController(t, remote)
	loadSession(t, c, "demo_0")

	gate := make(chan struct{})
	remote.mu.Lock()
	remote.clearGate = gate
	remote.mu.Unlock()

	require.NoError(t, c.LabelFrame(1, models.LabelGood))
	task := c.ClearAll()
	require.NoError(t, c.LabelFrame(2, models.LabelBad))
	close(gate)

	require.NoError(t, waitTask(t, task))
	c.Flush()

	assert.Equal(t, []models.Label{0, 0, -1, 0}, c.Snapshot().Labels)
	assert.Equal(t, c.Snapshot().Labels, remote.storedLabels("demo_0"))
}

func TestClearDuringLoadDropsOlderLabels(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 4, "agentview")
	remote.demos["demo_0"].labels = []models.Label{1, 1, -1, 0}
	gate := make(chan struct{})
	remote.labelsGate["demo_0"] = gate
	c, _ := newTestController(t, remote)

	load := c.SelectSession("demo_0")
	require.Eventually(t, func() bool {
		return c.Snapshot().Length == 4
	}, time.Second, time.Millisecond)
	require.False(t, c.Snapshot().LabelsReady())

	require.NoError(t, waitTask(t, c.ClearAll()))
	close(gate)
	require.NoError(t, waitTask(t, load))

	snap := c.Snapshot()
	assert.True(t, snap.LabelsReady())
	assert.Equal(t, []models.Label{0, 0, 0, 0}, snap.Labels)
	assert.Equal(t, snap.Labels, remote.storedLabels("demo_0"))
}

func TestClearBeforeLengthKnownRebuildsOnLength(t *testing.T) {
	remote := newFakeRemote()
	remote.addDemo("demo_0", 3, "agentview")
	remote.demos["demo_0"].labels = []models.Label{1, 0, -1}
	lengthGate := make(chan struct{})
	labelsGate := make(chan struct{})
	remote.lengthGate["demo_0"] = lengthGate
	remote.labelsGate["demo_0"] = labelsGate
	c, _ := newTestController(t, remote)

	load := c.SelectSession("demo_0")
	require.NoError(t, waitTask(t, c.ClearAll()))
	close(labelsGate)
	close(lengthGate)
	require.NoError(t, waitTask(t, load))

	snap := c.Snapshot()
	assert.Equal(t, 3, snap.Length)
	assert.Equal(t, []models.Label{0, 0, 0}, snap.Labels)
}
