package serialport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-sdi12/sdi12"
)

func TestWallTimer_Fires(t *testing.T) {
	sink := &recordSink{}
	timer := newWallTimer(sink)

	timer.Arm(5 * time.Millisecond)

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, sdi12.EventTimerExpired, sink.snapshot()[0].Kind)
}

func TestWallTimer_DisableSuppresses(t *testing.T) {
	sink := &recordSink{}
	timer := newWallTimer(sink)

	timer.Arm(10 * time.Millisecond)
	timer.Disable()

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink.snapshot())
}

func TestWallTimer_RearmSupersedes(t *testing.T) {
	sink := &recordSink{}
	timer := newWallTimer(sink)

	timer.Arm(10 * time.Millisecond)
	timer.Arm(30 * time.Millisecond)

	// the first arming must not fire
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, sink.snapshot())

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 1
	}, time.Second, time.Millisecond)
}
