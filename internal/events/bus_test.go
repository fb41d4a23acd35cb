package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscriber(t *testing.T) {
	bus := NewBus(8)
	defer bus.Close()

	received := make(chan Event, 1)
	bus.Subscribe(PhaseStarted, func(ev Event) {
		received <- ev
	})

	bus.Publish(PhaseStarted, map[string]any{"phase": "sart_block", "block_number": 2})

	select {
	case ev := <-received:
		assert.Equal(t, PhaseStarted, ev.Type)
		assert.Equal(t, "sart_block", ev.Data["phase"])
		assert.Equal(t, 2, ev.Data["block_number"])
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBusTypeIsolation(t *testing.T) {
	bus := NewBus(8)
	defer bus.Close()

	var mu sync.Mutex
	var got []Type
	bus.Subscribe(ProbePresented, func(ev Event) {
		mu.Lock()
		got = append(got, ev.Type)
		mu.Unlock()
	})

	bus.Publish(RecordWritten, nil)
	bus.Publish(ProbePresented, nil)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0] == ProbePresented
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(8)
	defer bus.Close()

	var mu sync.Mutex
	count := 0
	unsub := bus.Subscribe(SessionCompleted, func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	bus.Publish(SessionCompleted, nil)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)

	unsub()
	bus.Publish(SessionCompleted, nil)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestBusSurvivesPanickingSubscriber(t *testing.T) {
	bus := NewBus(8)
	defer bus.Close()

	bus.Subscribe(SessionStarted, func(Event) {
		panic("bad subscriber")
	})
	ok := make(chan struct{}, 2)
	bus.Subscribe(SessionStarted, func(Event) {
		ok <- struct{}{}
	})

	bus.Publish(SessionStarted, nil)
	bus.Publish(SessionStarted, nil)

	for i := 0; i < 2; i++ {
		select {
		case <-ok:
		case <-time.After(2 * time.Second):
			t.Fatal("healthy subscriber starved after sibling panic")
		}
	}
}

func TestBusPublishNeverBlocks(t *testing.T) {
	bus := NewBus(1)
	defer bus.Close()

	// A subscriber that never drains forces buffer overflow.
	block := make(chan struct{})
	bus.Subscribe(RecordWritten, func(Event) {
		<-block
	})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(RecordWritten, nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	close(block)
}

func TestPublishAfterCloseIsNoop(t *testing.T) {
	bus := NewBus(8)
	bus.Subscribe(PhaseCompleted, func(Event) {})
	bus.Close()

	require.NotPanics(t, func() {
		bus.Publish(PhaseCompleted, nil)
	})
}
