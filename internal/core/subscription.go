package core

import (
	"context"
	"sync"
	"sync/atomic"
)

// Subscription is one consumer's view of the hub: a ring buffer with its own
// read cursor. It is owned by exactly one reader.
type Subscription struct {
	hub *Hub

	mu     sync.Mutex
	buf    []Message
	head   int
	size   int
	closed bool

	notify  chan struct{}
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

func newSubscription(h *Hub, capacity int) *Subscription {
	return &Subscription{
		hub:    h,
		buf:    make([]Message, capacity),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// push appends msg, evicting the oldest pending message when full.
// Reports whether a message was evicted.
func (s *Subscription) push(msg Message) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}

	evicted := false
	if s.size == len(s.buf) {
		s.buf[s.head] = Message{}
		s.head = (s.head + 1) % len(s.buf)
		s.size--
		evicted = true
		s.dropped.Add(1)
	}
	s.buf[(s.head+s.size)%len(s.buf)] = msg
	s.size++
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return evicted
}

// Next blocks until a message is available, the context ends, or the
// subscription is closed.
func (s *Subscription) Next(ctx context.Context) (Message, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return Message{}, ErrSubscriptionClosed
		}
		if s.size > 0 {
			msg := s.buf[s.head]
			s.buf[s.head] = Message{}
			s.head = (s.head + 1) % len(s.buf)
			s.size--
			s.mu.Unlock()
			return msg, nil
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-s.done:
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

// Pending returns the number of queued, unread messages.
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Dropped returns how many messages this subscriber lost to overflow.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close detaches the subscription from the hub. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
	s.shutdown()
}

func (s *Subscription) shutdown() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.buf = nil
		s.size = 0
		s.mu.Unlock()
		close(s.done)
	})
}
