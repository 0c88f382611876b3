package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-sdi12/logger"
)

func TestManager_StartStop(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	mgr := NewManager(context.Background(), logger.GetLogger())

	var iterations atomic.Int32
	err := mgr.Start("loop", func() bool {
		iterations.Add(1)
		time.Sleep(time.Millisecond)
		return true
	})
	require.NoError(err)
	assert.Equal(1, mgr.TaskCount())

	time.Sleep(20 * time.Millisecond)
	mgr.Stop()
	mgr.Wait()

	assert.Equal(0, mgr.TaskCount())
	assert.Greater(iterations.Load(), int32(0))
}

func TestManager_TaskReturnsFalse(t *testing.T) {
	require := require.New(t)

	mgr := NewManager(context.Background(), logger.GetLogger())

	done := make(chan struct{})
	err := mgr.Start("oneshot", func() bool {
		close(done)
		return false
	})
	require.NoError(err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}

	mgr.Wait()
	require.Equal(0, mgr.TaskCount())
}

func TestManager_StartWithCancel(t *testing.T) {
	require := require.New(t)

	mgr := NewManager(context.Background(), logger.GetLogger())

	var cleaned atomic.Bool
	err := mgr.StartWithCancel("withCancel", func() bool {
		time.Sleep(time.Millisecond)
		return true
	}, func() {
		cleaned.Store(true)
	})
	require.NoError(err)

	mgr.Stop()
	mgr.Wait()

	require.True(cleaned.Load())
}

func TestManager_StartInterval(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	mgr := NewManager(context.Background(), logger.GetLogger())

	var ticks atomic.Int32
	ticker, err := mgr.StartInterval("interval", func() bool {
		ticks.Add(1)
		return true
	}, 10*time.Millisecond, true)
	require.NoError(err)
	require.NotNil(ticker)

	// runNow fires once immediately
	assert.GreaterOrEqual(ticks.Load(), int32(1))

	time.Sleep(35 * time.Millisecond)
	assert.GreaterOrEqual(ticks.Load(), int32(3))

	require.NoError(mgr.StopInterval("interval"))
	mgr.Stop()
	mgr.Wait()
}

func TestManager_StartAfterStop(t *testing.T) {
	require := require.New(t)

	mgr := NewManager(context.Background(), logger.GetLogger())
	mgr.Stop()

	err := mgr.Start("late", func() bool { return false })
	require.Error(err)

	// Wait recreates the context, starting works again
	mgr.Wait()
	err = mgr.Start("again", func() bool { return false })
	require.NoError(err)
	mgr.Stop()
	mgr.Wait()
}
