// Package actuator drives the sorting actuator over a half-duplex serial
// channel: single-byte shape commands outbound, newline-terminated status
// text inbound. The link keeps a busy-until deadline per command and shortens
// it when the actuator reports early completion.
package actuator

import (
	"io"
	"time"
)

// Porter is the minimal interface the link needs from a serial port. The
// abstraction keeps the protocol testable without real hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// BufferResetter is an optional Porter extension for ports that can discard
// pending inbound/outbound bytes. Real serial ports implement it; mocks may
// not.
type BufferResetter interface {
	ResetInputBuffer() error
	ResetOutputBuffer() error
}

// TimeoutPorter is an optional Porter extension for ports with a configurable
// read timeout. The link requires a bounded read so a silent actuator cannot
// stall the monitor goroutine forever.
type TimeoutPorter interface {
	Porter
	SetReadTimeout(timeout time.Duration) error
}
