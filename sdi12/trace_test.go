package sdi12

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingTrace(t *testing.T) {
	t.Run("EmptySnapshot", func(t *testing.T) {
		trace := NewRingTrace(4)
		assert.Empty(t, trace.Snapshot())
	})

	t.Run("PartialFill", func(t *testing.T) {
		trace := NewRingTrace(4)
		trace.Record(Event{Kind: EventEdge}, StateTestingBreak)
		trace.Record(Event{Kind: EventTimerExpired}, StateIdle)

		records := trace.Snapshot()
		require.Len(t, records, 2)
		assert.Equal(t, EventEdge, records[0].Event.Kind)
		assert.Equal(t, StateIdle, records[1].State)
	})

	t.Run("WrapKeepsNewest", func(t *testing.T) {
		trace := NewRingTrace(3)
		for i := 0; i < 5; i++ {
			trace.Record(Event{Kind: EventByteReceived, Byte: byte('0' + i)}, StateWaitingForChar)
		}

		records := trace.Snapshot()
		require.Len(t, records, 3)
		assert.Equal(t, byte('2'), records[0].Event.Byte)
		assert.Equal(t, byte('4'), records[2].Event.Byte)
	})

	t.Run("Reset", func(t *testing.T) {
		trace := NewRingTrace(3)
		trace.Record(Event{Kind: EventEdge}, StateIdle)
		trace.Reset()
		assert.Empty(t, trace.Snapshot())
	})

	t.Run("DefaultSize", func(t *testing.T) {
		trace := NewRingTrace(0)
		trace.Record(Event{Kind: EventEdge}, StateIdle)
		assert.Len(t, trace.Snapshot(), 1)
	})
}
