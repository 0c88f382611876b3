package sdi12

import "time"

// Timer is the one-shot timing capability required by the engine.
//
// Arm starts (or restarts) the timer for the given duration; re-arming always
// supersedes any previously armed duration. When the duration elapses the
// host must deliver exactly one OnTimerExpired call to the engine, unless
// Disable was called or the timer was re-armed first.
type Timer interface {
	Arm(d time.Duration)
	Disable()
}

// EdgeSource is the line-level transition sensing capability.
//
// While enabled, every rising or falling transition on the bus input must be
// delivered to the engine via OnEdge together with the time elapsed since the
// engine last armed its timer.
type EdgeSource interface {
	Enable()
	Disable()
}

// ByteChannel is the byte-oriented serial capability (1200 baud, 7E1).
//
// Receive and transmit are enabled independently. While receive is enabled,
// each received byte must be delivered via OnByteReceived along with any
// detected framing/parity/overrun condition. Send writes one byte; its
// completion must be reported via OnByteSent.
type ByteChannel interface {
	EnableReceive()
	DisableReceive()
	EnableTransmit()
	DisableTransmit()
	Send(b byte)
}

// RecvError is a bitmask of byte-reception error conditions.
type RecvError uint8

const (
	// RecvOK indicates the byte was received without error.
	RecvOK RecvError = 0
	// RecvErrFraming indicates a stop-bit (framing) error.
	RecvErrFraming RecvError = 1 << iota
	// RecvErrParity indicates an even-parity mismatch.
	RecvErrParity
	// RecvErrOverrun indicates a receiver overrun.
	RecvErrOverrun
)

// Any returns true if any error condition is set.
func (e RecvError) Any() bool {
	return e != RecvOK
}

func (e RecvError) String() string {
	switch {
	case e == RecvOK:
		return "ok"
	case e&RecvErrFraming != 0:
		return "framing"
	case e&RecvErrParity != 0:
		return "parity"
	default:
		return "overrun"
	}
}
