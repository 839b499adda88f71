// Package stabilize turns a stream of noisy per-frame shape labels into rare,
// high-confidence confirmations. A label is confirmed only when it dominates
// the trailing observation window, and a cooldown suppresses re-confirming
// the shape that was just acted on while it is still in frame.
package stabilize

import (
	"sync"
	"time"

	"github.com/sortcell/sortcell/internal/classify"
)

const (
	// DefaultWindow is the sliding window capacity in observations.
	DefaultWindow = 5
	// DefaultThreshold is how many of the trailing observations must carry
	// the same label before it is confirmed. Must not exceed the window.
	DefaultThreshold = 4
	// DefaultCooldown is how long a just-confirmed label is suppressed.
	DefaultCooldown = 6 * time.Second
)

// Stabilizer holds the bounded observation window and cooldown state. Methods
// are safe for concurrent use, though in practice a single control loop owns
// the call sequence.
type Stabilizer struct {
	mu        sync.Mutex
	window    []classify.Label
	capacity  int
	threshold int
	cooldown  time.Duration

	lastConfirmed   classify.Label
	lastConfirmedAt time.Time
}

// New returns a Stabilizer with window capacity w, confirmation threshold t,
// and re-confirmation cooldown c. Out-of-range parameters fall back to the
// defaults; the threshold is clamped to the window capacity.
func New(w, t int, c time.Duration) *Stabilizer {
	if w <= 0 {
		w = DefaultWindow
	}
	if t <= 0 {
		t = DefaultThreshold
	}
	if t > w {
		t = w
	}
	if c < 0 {
		c = DefaultCooldown
	}
	return &Stabilizer{
		window:    make([]classify.Label, 0, w),
		capacity:  w,
		threshold: t,
		cooldown:  c,
	}
}

// Observe records one raw per-frame label and reports whether it is now
// confirmed. The oldest entry is evicted once the window is full. A label
// equal to the previous confirmation is never re-confirmed within the
// cooldown, even if the window would otherwise qualify.
func (s *Stabilizer) Observe(label classify.Label, now time.Time) (classify.Label, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.window) == s.capacity {
		copy(s.window, s.window[1:])
		s.window = s.window[:len(s.window)-1]
	}
	s.window = append(s.window, label)

	if label == s.lastConfirmed && now.Sub(s.lastConfirmedAt) < s.cooldown {
		return classify.Unknown, false
	}

	if len(s.window) < s.threshold {
		return classify.Unknown, false
	}

	count := 0
	for _, l := range s.window[len(s.window)-s.threshold:] {
		if l == label {
			count++
		}
	}
	if count < s.threshold {
		return classify.Unknown, false
	}

	s.lastConfirmed = label
	s.lastConfirmedAt = now
	return label, true
}

// Reset clears the observation window. The cooldown state is deliberately
// preserved so the shape that was just sent to the actuator cannot re-confirm
// the instant the window refills.
func (s *Stabilizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = s.window[:0]
}

// ResetAll clears the window and the cooldown state. Used by the external
// reset control, which wants a genuinely blank slate.
func (s *Stabilizer) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = s.window[:0]
	s.lastConfirmed = classify.Unknown
	s.lastConfirmedAt = time.Time{}
}

// LastConfirmed returns the most recently confirmed label and when it was
// confirmed. The label is Unknown before any confirmation.
func (s *Stabilizer) LastConfirmed() (classify.Label, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastConfirmed, s.lastConfirmedAt
}
