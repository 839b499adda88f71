// Package events carries shape and count notifications from the control loop
// to external consumers (the dashboard SSE feed, tests). Delivery is
// fire-and-forget: publishing never blocks the decision loop, and a slow
// subscriber loses events rather than stalling the sorter.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event kinds. The names match the wire events the dashboard listens for.
const (
	KindShapeUpdate = "shape_update"
	KindCountUpdate = "count_update"
)

// Event is one notification from the control loop.
type Event struct {
	Kind   string         `json:"kind"`
	Shape  string         `json:"shape,omitempty"`
	Counts map[string]int `json:"counts,omitempty"`
	Time   time.Time      `json:"time"`
}

// subscriberBuffer is the per-subscriber channel depth. Events beyond this
// backlog are dropped for that subscriber only.
const subscriberBuffer = 16

// Bus fans events out to subscribers. Safe for concurrent use.
type Bus struct {
	mu          sync.Mutex
	subscribers map[string]chan Event
	closed      bool
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string]chan Event)}
}

// Subscribe registers a new consumer and returns its ID and channel. The
// channel is closed on Unsubscribe or Close.
func (b *Bus) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a consumer and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Publish delivers the event to every subscriber that has buffer space.
// It never blocks.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// subscriber backlog full; drop for this consumer
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
