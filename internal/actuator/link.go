package actuator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sortcell/sortcell/internal/classify"
	"github.com/sortcell/sortcell/internal/monitoring"
)

var (
	// ErrWriteFailed indicates the transport accepted fewer bytes than the
	// command required.
	ErrWriteFailed = errors.New("failed to write command to actuator port")
	// ErrNotSortable indicates the label has no actuator command byte.
	ErrNotSortable = errors.New("shape has no actuator command")
)

// Status line values recognised on the return channel. Matching is exact and
// case-sensitive; anything else is informational at best.
const (
	statusDone       = "DONE"
	statusReady      = "READY"
	noticeProcessing = "detected - processing"
)

const (
	// DefaultCircleDuration is the hand-tuned upper bound for a circle sort:
	// measured motion time plus margin, not calibrated at runtime.
	DefaultCircleDuration = 10 * time.Second
	// DefaultShapeDuration covers square and triangle sorts, which drive the
	// longer gantry travel.
	DefaultShapeDuration = 20 * time.Second

	// lineBacklog bounds the inbound line queue between the monitor
	// goroutine and PollStatus. Overflow drops the oldest unread lines.
	lineBacklog = 64
)

// Link owns the actuator handshake: it serializes shape commands, estimates
// completion time, and reconciles that estimate against asynchronous status
// lines. A Link with a nil port runs in simulated mode: commands succeed
// without transport I/O while the busy bookkeeping still applies, so the rest
// of the pipeline behaves identically on a bench without hardware.
//
// All busy-state transitions happen under one mutex; the monitor goroutine
// only ever queues raw lines, so PollStatus and SendCommand can never
// interleave their read-modify-write sequences.
type Link struct {
	port  Porter
	lines chan string

	mu         sync.Mutex
	busyUntil  time.Time
	lastStatus string

	circleDuration time.Duration
	shapeDuration  time.Duration
}

// Option adjusts Link construction.
type Option func(*Link)

// WithEstimates overrides the per-shape busy-time estimates. Non-positive
// values keep the defaults.
func WithEstimates(circle, shape time.Duration) Option {
	return func(l *Link) {
		if circle > 0 {
			l.circleDuration = circle
		}
		if shape > 0 {
			l.shapeDuration = shape
		}
	}
}

// NewLink returns a Link driving the given port. A nil port selects
// simulated mode.
func NewLink(port Porter, opts ...Option) *Link {
	l := &Link{
		port:           port,
		lines:          make(chan string, lineBacklog),
		circleDuration: DefaultCircleDuration,
		shapeDuration:  DefaultShapeDuration,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewSimulatedLink returns a Link with no transport attached.
func NewSimulatedLink(opts ...Option) *Link {
	return NewLink(nil, opts...)
}

// Simulated reports whether the link has no transport attached.
func (l *Link) Simulated() bool { return l.port == nil }

// commandByte maps a confirmable shape to its single-byte wire command.
func commandByte(label classify.Label) (byte, bool) {
	switch label {
	case classify.Circle:
		return 'c', true
	case classify.Square:
		return 's', true
	case classify.Triangle:
		return 't', true
	default:
		return 0, false
	}
}

// estimate returns the busy-time upper bound for a shape command.
func (l *Link) estimate(label classify.Label) time.Duration {
	if label == classify.Circle {
		return l.circleDuration
	}
	return l.shapeDuration
}

// SendCommand writes the single command byte for the shape and marks the
// actuator busy until now plus the shape's estimated duration. The busy
// deadline is set regardless of acknowledgment; the actuator sends none for
// command receipt. A transport write failure returns the error and leaves the
// busy state untouched, so the next confirmed detection can safely retry.
func (l *Link) SendCommand(label classify.Label, now time.Time) error {
	cmd, ok := commandByte(label)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotSortable, label)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.port == nil {
		l.busyUntil = now.Add(l.estimate(label))
		monitoring.Logf("actuator: simulated %s command, busy for %s", label, l.estimate(label))
		return nil
	}

	// Drop anything queued from before this command so stale status lines
	// cannot end the new busy window.
	l.drainLines(now, false)
	if br, ok := l.port.(BufferResetter); ok {
		if err := br.ResetInputBuffer(); err != nil {
			monitoring.Logf("actuator: input buffer reset failed: %v", err)
		}
		if err := br.ResetOutputBuffer(); err != nil {
			monitoring.Logf("actuator: output buffer reset failed: %v", err)
		}
	}

	n, err := l.port.Write([]byte{cmd})
	if err != nil {
		return fmt.Errorf("send %s command: %w", label, err)
	}
	if n != 1 {
		return ErrWriteFailed
	}

	l.busyUntil = now.Add(l.estimate(label))
	monitoring.Logf("actuator: sent %q, busy for %s", cmd, l.estimate(label))
	return nil
}

// PollStatus drains all currently queued status lines without blocking and
// applies their state effects. A "DONE" or "READY" line ends the busy window
// immediately, overriding any still-running estimate.
func (l *Link) PollStatus(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drainLines(now, true)
}

// drainLines consumes queued lines; callers hold l.mu. When apply is false
// the lines are discarded unprocessed (used when clearing state before a new
// command).
func (l *Link) drainLines(now time.Time, apply bool) {
	for {
		select {
		case line := <-l.lines:
			if apply {
				l.handleLine(line, now)
			}
		default:
			return
		}
	}
}

// handleLine applies one status line; callers hold l.mu. Unrecognised lines
// never fail the link: the channel is best-effort.
func (l *Link) handleLine(line string, now time.Time) {
	line = strings.TrimSpace(strings.ToValidUTF8(line, ""))
	if line == "" {
		return
	}
	l.lastStatus = line

	switch {
	case line == statusDone:
		monitoring.Logf("actuator: task complete")
		l.busyUntil = now
	case line == statusReady:
		monitoring.Logf("actuator: ready for commands")
		l.busyUntil = now
	case strings.Contains(line, noticeProcessing):
		monitoring.Logf("actuator: started processing")
	default:
		monitoring.Logf("actuator: ignoring line %q", line)
	}
}

// IsReady reports whether the actuator can accept a command at the given
// instant.
func (l *Link) IsReady(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !now.Before(l.busyUntil)
}

// Remaining returns the estimated time left in the current busy window, or
// zero when ready.
func (l *Link) Remaining(now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Before(l.busyUntil) {
		return l.busyUntil.Sub(now)
	}
	return 0
}

// ResetBusy forces the actuator to be considered ready now. Used by the
// external reset control.
func (l *Link) ResetBusy(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.busyUntil = now
}

// LastStatus returns the most recent non-empty status line seen on the
// return channel.
func (l *Link) LastStatus() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastStatus
}

// Monitor reads status lines from the port and queues them for PollStatus.
// It returns when the context is cancelled or the port fails permanently.
// In simulated mode it just waits for cancellation.
//
// Reads are accumulated manually rather than via bufio.Scanner because the
// port's read timeout surfaces as (0, nil), which a scanner treats as lack of
// progress.
func (l *Link) Monitor(ctx context.Context) error {
	if l.port == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	buf := make([]byte, 256)
	var pending []byte
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := l.port.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			for {
				idx := bytes.IndexByte(pending, '\n')
				if idx < 0 {
					break
				}
				line := string(pending[:idx])
				pending = pending[idx+1:]
				select {
				case l.lines <- line:
				default:
					// Backlog full: shed the oldest unread line so fresh
					// status (DONE/READY) is never the one dropped.
					select {
					case <-l.lines:
					default:
					}
					select {
					case l.lines <- line:
					default:
					}
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("actuator port read: %w", err)
		}
		if n == 0 {
			// Read timeout or mock starvation; yield briefly before retrying.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(10 * time.Millisecond):
			}
		}
	}
}

// Close releases the underlying transport. Safe to call in simulated mode.
func (l *Link) Close() error {
	if l.port == nil {
		return nil
	}
	return l.port.Close()
}
