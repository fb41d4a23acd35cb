// Package events carries session lifecycle notifications between the
// daemon's components and writes the append-only session event log.
package events

import (
	"sync"
	"time"
)

// Type names a session lifecycle event.
type Type string

const (
	// SessionStarted is published once, when the daemon takes ownership
	// of a planned session.
	SessionStarted Type = "session_started"
	// PhaseStarted is published when a phase becomes active.
	PhaseStarted Type = "phase_started"
	// PhaseCompleted is published when a phase reaches a terminal status.
	PhaseCompleted Type = "phase_completed"
	// ProbePresented is published when a mind-wandering probe interrupts
	// a SART block.
	ProbePresented Type = "probe_presented"
	// RecordWritten is published after a trial record lands in the CSV.
	RecordWritten Type = "record_written"
	// SessionCompleted is published when the final phase completes.
	SessionCompleted Type = "session_completed"
)

// Event is one published notification.
type Event struct {
	Type      Type
	Timestamp time.Time
	Data      map[string]any
}

// Subscriber receives events for one Type.
type Subscriber func(Event)

// Bus fans events out to subscribers over buffered channels. Publish never
// blocks; when a subscriber's buffer is full the event is dropped for that
// subscriber. The session itself never depends on delivery, only the event
// log and status reporting listen.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Type][]chan Event
	bufferSize  int
}

// NewBus creates a bus with the given per-subscriber buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Bus{
		subscribers: make(map[Type][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers fn for one event type and returns an unsubscribe
// function. fn runs on its own goroutine; a panic in fn is contained.
func (b *Bus) Subscribe(t Type, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	b.subscribers[t] = append(b.subscribers[t], ch)

	go func() {
		for ev := range ch {
			func() {
				defer func() {
					// A broken subscriber must not take the bus down.
					_ = recover()
				}()
				fn(ev)
			}()
		}
	}()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.subscribers[t]
		for i, sub := range subs {
			if sub == ch {
				b.subscribers[t] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
	}
}

// Publish delivers an event to every subscriber of t without blocking.
func (b *Bus) Publish(t Type, data map[string]any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ev := Event{
		Type:      t,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	for _, ch := range b.subscribers[t] {
		select {
		case ch <- ev:
		default:
			// Buffer full, drop rather than stall the publisher.
		}
	}
}

// Close closes every subscriber channel and clears subscriptions.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for t, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, t)
	}
}
