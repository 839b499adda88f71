package events

import (
	"testing"
	"time"
)

func TestSubscribeReceivesPublished(t *testing.T) {
	b := NewBus()
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	want := Event{Kind: KindShapeUpdate, Shape: "circle", Time: time.Now()}
	b.Publish(want)

	select {
	case got := <-ch:
		if got.Kind != KindShapeUpdate || got.Shape != "circle" {
			t.Errorf("received %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSubscriberIDsUnique(t *testing.T) {
	b := NewBus()
	id1, _ := b.Subscribe()
	id2, _ := b.Subscribe()
	if id1 == id2 {
		t.Error("subscriber IDs must be unique")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	b := NewBus()
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	// fill the subscriber buffer and keep publishing; none of these may block
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			b.Publish(Event{Kind: KindCountUpdate})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	// the subscriber still holds exactly its buffered backlog
	if got := len(ch); got != subscriberBuffer {
		t.Errorf("backlog = %d, want %d", got, subscriberBuffer)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus()
	id, ch := b.Subscribe()
	b.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}

	// unsubscribing twice is harmless
	b.Unsubscribe(id)
}

func TestCloseClosesAllSubscribers(t *testing.T) {
	b := NewBus()
	_, ch1 := b.Subscribe()
	_, ch2 := b.Subscribe()

	b.Close()

	for i, ch := range []<-chan Event{ch1, ch2} {
		if _, ok := <-ch; ok {
			t.Errorf("subscriber %d channel should be closed", i)
		}
	}

	// subscribing after close yields an already-closed channel
	_, ch3 := b.Subscribe()
	if _, ok := <-ch3; ok {
		t.Error("post-close subscription should be closed immediately")
	}
}
