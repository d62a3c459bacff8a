package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

func mustNext(t *testing.T, sub *Subscription) Message {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	msg, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("expected message, got error: %v", err)
	}
	return msg
}

func mustSubscribe(t *testing.T, hub *Hub) *Subscription {
	t.Helper()

	sub, err := hub.Subscribe()
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	t.Cleanup(sub.Close)
	return sub
}

func msg(user, text string, ts int64) Message {
	return Message{User: user, Text: text, TS: ts}
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{counts: make(map[string]int64)}
}

func (r *countingRecorder) Incr(name string, delta int64) {
	r.mu.Lock()
	r.counts[name] += delta
	r.mu.Unlock()
}

func (r *countingRecorder) get(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

type fakePersister struct {
	mu     sync.Mutex
	msgs   []Message
	reject bool
}

func (p *fakePersister) Enqueue(m Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reject {
		return false
	}
	p.msgs = append(p.msgs, m)
	return true
}

func (p *fakePersister) stored() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.msgs...)
}
