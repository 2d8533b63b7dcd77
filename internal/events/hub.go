package events

import (
	"log"
	"sync"
)

// subscriberQueueSize is the bounded backlog per subscriber before the
// Hub starts dropping the oldest queued event to make room for the
// newest one.
const subscriberQueueSize = 100

// Hub multiplexes the Events published on one Job's Bus to every active
// Subscription on that Job, in production order per (JobID, AgentKey).
// It owns the drop-oldest backpressure policy: a subscriber that falls
// behind never stalls the producer (a supervisor or the scheduler);
// instead the Hub discards its oldest buffered event and emits a single
// warning noting the loss.
type Hub struct {
	jobID string
	bus   *Bus

	mu          sync.Mutex
	subscribers map[int]*subscriber
	nextID      int
}

type subscriber struct {
	ch     chan Event
	mu     sync.Mutex
	closed bool
	warned bool
}

// NewHub creates a Hub bound to bus and begins relaying every event bus
// emits to this Hub's subscribers. The Hub is created alongside its Job
// and stops receiving events once its Bus is closed; it has no Close of
// its own.
func NewHub(jobID string, bus *Bus) *Hub {
	h := &Hub{
		jobID:       jobID,
		bus:         bus,
		subscribers: make(map[int]*subscriber),
	}
	bus.Subscribe(h.deliver)
	return h
}

// Subscribe registers a new live observer for this Job. It returns a
// receive-only channel of Events and an idempotent cleanup function the
// caller must invoke on detach. The returned channel is closed by
// cleanup, never by the Hub spontaneously, so a ranging reader always
// sees a clean channel-close as "I detached" rather than "the job
// vanished."
func (h *Hub) Subscribe() (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberQueueSize)}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subscribers[id] = sub
	h.mu.Unlock()

	cleanup := func() {
		h.mu.Lock()
		delete(h.subscribers, id)
		h.mu.Unlock()

		sub.mu.Lock()
		defer sub.mu.Unlock()
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
	}

	return sub.ch, cleanup
}

// SubscriberCount reports how many live observers are currently
// attached.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// deliver is the Bus handler that fans one event out to every
// subscriber, applying the bounded-queue drop-oldest policy per
// subscriber.
func (h *Hub) deliver(e Event) {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for _, s := range h.subscribers {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.send(h.jobID, e)
	}
}

func (s *subscriber) send(jobID string, e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	select {
	case s.ch <- e:
		return
	default:
	}

	// Backlog full: drop the oldest queued event to make room, then
	// warn once for the lifetime of the subscription rather than once
	// per drop.
	select {
	case <-s.ch:
	default:
	}
	if !s.warned {
		s.warned = true
		log.Printf("events: subscriber lagging on job %s; dropping oldest queued events", jobID)
		warning := NewJobEvent(jobID, KindWarning, "subscriber lagging; events dropped")
		select {
		case s.ch <- warning:
		default:
		}
		// The warning took the freed slot; free one more for e.
		select {
		case <-s.ch:
		default:
		}
	}
	select {
	case s.ch <- e:
	default:
		// Subscriber is draining slower than we can even make room;
		// give up on this event rather than block the producer.
	}
}
