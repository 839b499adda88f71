// Package monitoring carries the process-wide diagnostic logger. Faults in
// the sorting cell surface only as logged diagnostics; nothing in the control
// loop is allowed to terminate on a single-tick failure, so every component
// reports through here instead of returning fatal errors.
package monitoring

import "log"

// Logf is the package-level diagnostic logger, defaulting to log.Printf.
// Replace it with SetLogger to redirect or mute output.
var Logf func(format string, v ...any) = log.Printf

// Debugf logs verbose per-tick diagnostics. It is a no-op unless enabled with
// SetDebug; the control loop runs at ~30 Hz and would otherwise flood logs.
var Debugf func(format string, v ...any) = func(string, ...any) {}

// SetLogger replaces the package logger. A nil argument installs a no-op
// logger, which tests use to keep output quiet.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}

// SetDebug routes Debugf through the current Logf when enabled.
func SetDebug(enabled bool) {
	if enabled {
		Debugf = func(format string, v ...any) { Logf(format, v...) }
		return
	}
	Debugf = func(string, ...any) {}
}
