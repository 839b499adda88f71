package actuator

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultReadTimeout bounds a single read on the real serial port so the
// monitor goroutine can observe shutdown even when the actuator is silent.
const DefaultReadTimeout = 250 * time.Millisecond

// OpenPort opens a real serial port for the actuator at the given path with
// a bounded read timeout applied.
func OpenPort(path string, opts PortOptions) (Porter, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open actuator port %s: %w", path, err)
	}

	if err := port.SetReadTimeout(DefaultReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", path, err)
	}

	return port, nil
}
