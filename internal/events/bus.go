// Package events is a small in-process publish/subscribe bus. Handlers run
// synchronously in the order they subscribed, so a publisher knows every
// local subscriber has observed the change when Publish returns.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Type names an event kind.
type Type string

const (
	ProductUpserted    Type = "product.upserted"
	ProductRemoved     Type = "product.removed"
	StockChanged       Type = "stock.changed"
	OrderPlaced        Type = "order.placed"
	OrderStatusChanged Type = "order.status_changed"
)

// Event is one published change. Payload is JSON-encodable.
type Event struct {
	Type    Type      `json:"type"`
	Subject string    `json:"subject"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// Handler receives events.
type Handler func(Event)

type subscription struct {
	id int64
	fn Handler
}

// Bus fans events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	nextID int64
	subs   []subscription
	now    func() time.Time
}

func NewBus() *Bus {
	return &Bus{now: time.Now}
}

// Subscribe registers fn and returns a func that removes it.
func (b *Bus) Subscribe(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers ev to every subscriber in registration order.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = b.now().UTC()
	}
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// Stream is a buffered channel subscription for consumers living on another
// goroutine (websocket writers). A full buffer drops the event for this
// stream only; publishers never block.
type Stream struct {
	ch          chan Event
	unsubscribe func()
	dropped     atomic.Int64
	closeOnce   sync.Once
	mu          sync.RWMutex
	closed      bool
}

// Stream subscribes a new Stream with the given buffer size.
func (b *Bus) Stream(buffer int) *Stream {
	if buffer <= 0 {
		buffer = 1
	}
	s := &Stream{ch: make(chan Event, buffer)}
	s.unsubscribe = b.Subscribe(s.offer)
	return s
}

func (s *Stream) offer(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
		s.dropped.Add(1)
	}
}

// Events is closed once Close has been called.
func (s *Stream) Events() <-chan Event { return s.ch }

// Dropped reports how many events did not fit into the buffer.
func (s *Stream) Dropped() int64 { return s.dropped.Load() }

func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		s.unsubscribe()
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}
