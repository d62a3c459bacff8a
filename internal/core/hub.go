package core

import "sync"

// DefaultQueueSize is the per-subscriber backlog used when none is configured.
const DefaultQueueSize = 256

// Hub fans every published message out to all current subscriptions.
// Each subscription owns a bounded queue; a full queue sheds its own oldest
// message so the publisher never waits on a slow reader.
type Hub struct {
	mu       sync.Mutex
	subs     map[*Subscription]struct{}
	capacity int
	closed   bool
	rec      Recorder
}

// NewHub creates a hub whose subscriptions buffer up to capacity messages.
// Non-positive capacity falls back to DefaultQueueSize.
func NewHub(capacity int, rec Recorder) *Hub {
	if capacity <= 0 {
		capacity = DefaultQueueSize
	}
	return &Hub{
		subs:     make(map[*Subscription]struct{}),
		capacity: capacity,
		rec:      recorderOrNop(rec),
	}
}

// Subscribe registers a new subscription. It only observes messages
// published after this call returns.
func (h *Hub) Subscribe() (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	sub := newSubscription(h, h.capacity)
	h.subs[sub] = struct{}{}
	return sub, nil
}

// Publish enqueues msg for every subscriber. Publishes are serialized so all
// subscribers observe the same order.
func (h *Hub) Publish(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var dropped int64
	for sub := range h.subs {
		if sub.push(msg) {
			dropped++
		}
	}
	h.rec.Incr(MetricPublished, 1)
	if dropped > 0 {
		h.rec.Incr(MetricHubDropped, dropped)
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close releases every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	clear(h.subs)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}
