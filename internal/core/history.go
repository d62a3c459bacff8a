package core

import (
	"slices"
	"sync"
	"sync/atomic"
)

// DefaultHistorySize is used when no positive history size is configured.
const DefaultHistorySize = 200

// History keeps the most recent messages, oldest first.
// Writers copy the current slice and swap it in, so snapshots never wait on
// a writer and never see a partial append.
type History struct {
	mu       sync.Mutex // serializes writers
	capacity int
	items    atomic.Pointer[[]Message]
}

// NewHistory creates an empty buffer holding at most capacity messages.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = DefaultHistorySize
	}
	h := &History{capacity: capacity}
	empty := []Message{}
	h.items.Store(&empty)
	return h
}

// Snapshot returns a copy of the buffered messages, oldest first.
func (h *History) Snapshot() []Message {
	return slices.Clone(*h.items.Load())
}

// Append adds msg at the end and evicts from the front past capacity.
func (h *History) Append(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur := *h.items.Load()
	start := 0
	if len(cur)+1 > h.capacity {
		start = len(cur) + 1 - h.capacity
	}
	next := make([]Message, 0, len(cur)-start+1)
	next = append(next, cur[start:]...)
	next = append(next, msg)
	h.items.Store(&next)
}

// Seed replaces the contents with msgs (oldest first), keeping the newest
// capacity entries.
func (h *History) Seed(msgs []Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(msgs) > h.capacity {
		msgs = msgs[len(msgs)-h.capacity:]
	}
	next := slices.Clone(msgs)
	if next == nil {
		next = []Message{}
	}
	h.items.Store(&next)
}

// Len returns the current number of buffered messages.
func (h *History) Len() int {
	return len(*h.items.Load())
}

// Cap returns the configured maximum.
func (h *History) Cap() int {
	return h.capacity
}
