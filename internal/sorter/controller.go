// Package sorter runs the decision loop of the sorting cell: poll the
// actuator, and when it is ready pull the dominant contour, classify it,
// stabilize the result, and hand confirmed shapes to the actuator link.
package sorter

import (
	"context"
	"sync"
	"time"

	"github.com/sortcell/sortcell/internal/actuator"
	"github.com/sortcell/sortcell/internal/classify"
	"github.com/sortcell/sortcell/internal/events"
	"github.com/sortcell/sortcell/internal/geometry"
	"github.com/sortcell/sortcell/internal/monitoring"
	"github.com/sortcell/sortcell/internal/stabilize"
)

// ContourSource supplies the contours visible in the most recent frame. An
// error means nothing could be acquired this tick; the loop backs off and
// retries. Implementations should pre-filter speckle noise but the controller
// applies the minimum-area filter again before selection.
type ContourSource interface {
	NextContours(ctx context.Context) ([]geometry.Contour, error)
}

// SourceFunc adapts a function to the ContourSource interface.
type SourceFunc func(ctx context.Context) ([]geometry.Contour, error)

func (f SourceFunc) NextContours(ctx context.Context) ([]geometry.Contour, error) {
	return f(ctx)
}

// Config carries the loop timing and filtering parameters.
type Config struct {
	// MinContourArea filters speckle noise before shape selection.
	MinContourArea float64
	// TickDelay is the inter-iteration delay of the control loop.
	TickDelay time.Duration
	// DetectionInterval is the minimum spacing between detection attempts
	// while the actuator is ready.
	DetectionInterval time.Duration
	// AcquireBackoff is the extra pause after a failed acquisition.
	AcquireBackoff time.Duration
}

// noShape is the wire name reported when no classifiable contour is in frame.
const noShape = "none"

// Controller owns the counts and sequences all calls into the stabilizer and
// actuator link. It is the single writer for detection state; the link
// serializes its own busy bookkeeping internally.
type Controller struct {
	cfg    Config
	source ContourSource
	link   *actuator.Link
	stab   *stabilize.Stabilizer
	bus    *events.Bus
	now    func() time.Time

	mu           sync.Mutex
	counts       Counts
	currentShape string
	lastAttempt  time.Time
}

// Option adjusts Controller construction.
type Option func(*Controller)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New assembles a Controller. The bus may be nil when no consumer cares
// about events.
func New(cfg Config, source ContourSource, link *actuator.Link, stab *stabilize.Stabilizer, bus *events.Bus, opts ...Option) *Controller {
	if cfg.MinContourArea <= 0 {
		cfg.MinContourArea = geometry.DefaultMinArea
	}
	if cfg.TickDelay <= 0 {
		cfg.TickDelay = 33 * time.Millisecond
	}
	if cfg.DetectionInterval <= 0 {
		cfg.DetectionInterval = time.Second
	}
	if cfg.AcquireBackoff <= 0 {
		cfg.AcquireBackoff = 100 * time.Millisecond
	}
	c := &Controller{
		cfg:          cfg,
		source:       source,
		link:         link,
		stab:         stab,
		bus:          bus,
		now:          time.Now,
		currentShape: noShape,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes the control loop until the context is cancelled. Single-tick
// faults are logged and absorbed; the loop never terminates on its own.
func (c *Controller) Run(ctx context.Context) error {
	for {
		extra := c.tick(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.TickDelay + extra):
		}
	}
}

// tick performs one decision iteration and returns any extra delay the loop
// should add before the next one. Ordering within a tick is fixed: status is
// polled before readiness is evaluated, and readiness before any detection
// attempt, so a status line arriving mid-tick is visible no later than the
// next tick.
func (c *Controller) tick(ctx context.Context) time.Duration {
	now := c.now()

	c.link.PollStatus(now)
	if !c.link.IsReady(now) {
		monitoring.Debugf("sorter: actuator busy, ~%.0fs remaining", c.link.Remaining(now).Seconds())
		return 0
	}

	c.mu.Lock()
	due := now.Sub(c.lastAttempt) >= c.cfg.DetectionInterval
	c.mu.Unlock()
	if !due {
		return 0
	}

	contours, err := c.source.NextContours(ctx)
	if err != nil {
		monitoring.Logf("sorter: contour acquisition failed: %v", err)
		return c.cfg.AcquireBackoff
	}

	c.mu.Lock()
	c.lastAttempt = now
	c.mu.Unlock()

	label := c.classifyLargest(contours)
	c.observeShape(label, now)

	if !label.Confirmable() {
		return 0
	}

	confirmed, ok := c.stab.Observe(label, now)
	if !ok {
		monitoring.Debugf("sorter: detecting %s, stabilizing", label)
		return 0
	}

	if err := c.link.SendCommand(confirmed, now); err != nil {
		// Transient transport fault: counts and stabilizer state are left
		// alone so the same confirmation can retry on a later tick.
		monitoring.Logf("sorter: command for %s failed: %v", confirmed, err)
		return 0
	}

	c.mu.Lock()
	c.counts.increment(confirmed)
	counts := c.counts
	c.mu.Unlock()

	monitoring.Logf("sorter: confirmed %s, count now %d", confirmed, counts.Map()[confirmed.String()])
	c.publish(events.Event{Kind: events.KindShapeUpdate, Shape: confirmed.String(), Time: now})
	c.publish(events.Event{Kind: events.KindCountUpdate, Counts: counts.Map(), Time: now})

	c.stab.Reset()
	return 0
}

// classifyLargest selects the largest contour passing the area filter and
// classifies it. Ties keep the earlier contour, preserving extraction order.
func (c *Controller) classifyLargest(contours []geometry.Contour) classify.Label {
	var largest geometry.Contour
	var largestArea float64
	for _, contour := range contours {
		if area := contour.Area(); area >= c.cfg.MinContourArea && area > largestArea {
			largest = contour
			largestArea = area
		}
	}
	if largest == nil {
		return classify.Unknown
	}

	desc, ok := geometry.Extract(largest, c.cfg.MinContourArea)
	if !ok {
		return classify.Unknown
	}
	return classify.Classify(desc)
}

// observeShape tracks the per-tick label and emits a shape_update on every
// transition, including back to none.
func (c *Controller) observeShape(label classify.Label, now time.Time) {
	name := noShape
	if label != classify.Unknown {
		name = label.String()
	}

	c.mu.Lock()
	changed := name != c.currentShape
	c.currentShape = name
	c.mu.Unlock()

	if changed {
		c.publish(events.Event{Kind: events.KindShapeUpdate, Shape: name, Time: now})
	}
}

func (c *Controller) publish(ev events.Event) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}

// Counts returns a snapshot of the tallies.
func (c *Controller) Counts() Counts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts
}

// Status is the operator-facing view of the cell.
type Status struct {
	Ready            bool    `json:"ready"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	CurrentShape     string  `json:"current_shape"`
	Simulated        bool    `json:"simulated"`
	LastStatusLine   string  `json:"last_status_line,omitempty"`
}

// Status reports actuator readiness and the shape currently in frame.
func (c *Controller) Status() Status {
	now := c.now()
	c.mu.Lock()
	shape := c.currentShape
	c.mu.Unlock()
	return Status{
		Ready:            c.link.IsReady(now),
		RemainingSeconds: c.link.Remaining(now).Seconds(),
		CurrentShape:     shape,
		Simulated:        c.link.Simulated(),
		LastStatusLine:   c.link.LastStatus(),
	}
}

// Reset zeroes all counts, forces the actuator ready, clears the stabilizer
// including its cooldown state, and re-emits both event kinds with the zeroed
// state. Triggered externally (dashboard reset control).
func (c *Controller) Reset() {
	now := c.now()

	c.mu.Lock()
	c.counts = Counts{}
	c.currentShape = noShape
	counts := c.counts
	c.mu.Unlock()

	c.link.ResetBusy(now)
	c.stab.ResetAll()

	monitoring.Logf("sorter: counts and state reset")
	c.publish(events.Event{Kind: events.KindCountUpdate, Counts: counts.Map(), Time: now})
	c.publish(events.Event{Kind: events.KindShapeUpdate, Shape: noShape, Time: now})
}
