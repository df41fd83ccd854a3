// Package bridge delivers link events to consumers outside the process.
package bridge

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robotalks/g4link/pkg/link"
)

// DefaultQueueSize is the event buffer of a subscription.
const DefaultQueueSize = 64

// Envelope wraps an event for serialization.
type Envelope struct {
	Type      link.EventType `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      link.Event     `json:"data"`
}

// Wrap creates an Envelope stamped with the current time.
func Wrap(ev link.Event) Envelope {
	return Envelope{Type: ev.EventType(), Timestamp: time.Now().UTC(), Data: ev}
}

// Subscription receives events from a Bus.
type Subscription struct {
	C <-chan link.Event

	bus     *Bus
	ch      chan link.Event
	dropped uint64
}

// Dropped returns the number of events skipped because C was full.
func (s *Subscription) Dropped() uint64 {
	return atomic.LoadUint64(&s.dropped)
}

// Close unsubscribes and closes C.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s)
}

// Bus fans events out to subscribers. A slow subscriber misses events
// instead of stalling the link. It implements link.Sink.
type Bus struct {
	QueueSize int

	lock   sync.RWMutex
	subs   map[*Subscription]struct{}
	states map[string]*link.ConnStateEvent
	closed bool
}

// NewBus creates a Bus.
func NewBus() *Bus {
	return &Bus{
		QueueSize: DefaultQueueSize,
		subs:      make(map[*Subscription]struct{}),
		states:    make(map[string]*link.ConnStateEvent),
	}
}

// Subscribe registers a subscriber. The last known connection states are
// queued first so the subscriber starts with current state.
func (b *Bus) Subscribe() *Subscription {
	size := b.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	ch := make(chan link.Event, size)
	sub := &Subscription{C: ch, ch: ch, bus: b}
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.closed {
		close(ch)
		return sub
	}
	for _, ev := range b.sortedStates() {
		select {
		case ch <- ev:
		default:
		}
	}
	b.subs[sub] = struct{}{}
	return sub
}

func (b *Bus) sortedStates() []*link.ConnStateEvent {
	ports := make([]string, 0, len(b.states))
	for port := range b.states {
		ports = append(ports, port)
	}
	sort.Strings(ports)
	events := make([]*link.ConnStateEvent, 0, len(ports))
	for _, port := range ports {
		events = append(events, b.states[port])
	}
	return events
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// Emit implements link.Sink. It never blocks.
func (b *Bus) Emit(ctx context.Context, ev link.Event) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.closed {
		return link.ErrConsumerGone
	}
	if state, ok := ev.(*link.ConnStateEvent); ok {
		b.recordState(state)
	}
	for sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			atomic.AddUint64(&sub.dropped, 1)
		}
	}
	return nil
}

func (b *Bus) recordState(ev *link.ConnStateEvent) {
	if ev.State == link.Waiting {
		// per-port states survive the discovery cycle.
		b.states[""] = ev
		return
	}
	delete(b.states, "")
	b.states[ev.Port] = ev
}

// Subscribers returns the number of subscribers.
func (b *Bus) Subscribers() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return len(b.subs)
}

// Close closes all subscriptions. Emit returns link.ErrConsumerGone
// afterwards.
func (b *Bus) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub.ch)
	}
}
