package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(func(ev Event) { got = append(got, "first:"+ev.Subject) })
	bus.Subscribe(func(ev Event) { got = append(got, "second:"+ev.Subject) })

	bus.Publish(Event{Type: OrderPlaced, Subject: "o1"})
	bus.Publish(Event{Type: OrderPlaced, Subject: "o2"})

	assert.Equal(t, []string{"first:o1", "second:o1", "first:o2", "second:o2"}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(func(Event) { calls++ })
	bus.Publish(Event{Type: StockChanged})
	unsubscribe()
	unsubscribe()
	bus.Publish(Event{Type: StockChanged})
	assert.Equal(t, 1, calls)
}

func TestBus_StampsTime(t *testing.T) {
	bus := NewBus()
	var seen Event
	bus.Subscribe(func(ev Event) { seen = ev })
	bus.Publish(Event{Type: ProductRemoved, Subject: "p1"})
	assert.False(t, seen.At.IsZero())
}

func TestStream_BuffersAndDrops(t *testing.T) {
	bus := NewBus()
	s := bus.Stream(2)

	bus.Publish(Event{Type: OrderPlaced, Subject: "o1"})
	bus.Publish(Event{Type: OrderPlaced, Subject: "o2"})
	bus.Publish(Event{Type: OrderPlaced, Subject: "o3"})

	assert.Equal(t, int64(1), s.Dropped())
	assert.Equal(t, "o1", (<-s.Events()).Subject)
	assert.Equal(t, "o2", (<-s.Events()).Subject)

	s.Close()
	s.Close()
	_, ok := <-s.Events()
	assert.False(t, ok)

	// publishing after close must not panic on the closed channel
	bus.Publish(Event{Type: OrderPlaced, Subject: "o4"})
}

func TestStream_ConcurrentPublishAndClose(t *testing.T) {
	bus := NewBus()
	s := bus.Stream(16)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				bus.Publish(Event{Type: StockChanged})
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		for range s.Events() {
		}
		close(done)
	}()
	wg.Wait()
	s.Close()
	<-done
	require.True(t, s.Dropped() >= 0)
}
