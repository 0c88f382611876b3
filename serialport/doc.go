// Package serialport binds the protocol engine's hardware capabilities to a
// real UART.
//
// A Port wraps a go.bug.st/serial port opened at 1200 baud, 7 data bits,
// even parity, 1 stop bit. The byte-oriented UART cannot observe raw line
// transitions, so the Port synthesizes the edge events the engine expects: a
// received null byte reads as a line break and becomes a falling/rising edge
// pair, and in states where edge sensing is enabled the start bit of an
// incoming character is rendered as a short pulse before the byte itself.
//
// A Runner owns the event queue and drives the engine from a single
// goroutine, calling Poll once per pass, so no additional locking is needed
// around the engine.
package serialport
