package core

import "time"

// Persister hands messages to durable storage without blocking.
// Enqueue reports false when the message was not accepted.
type Persister interface {
	Enqueue(msg Message) bool
}

// Relay turns accepted client input into stamped messages and distributes
// them to the history buffer, the optional persister and the hub.
type Relay struct {
	hub     *Hub
	history *History
	persist Persister
	rec     Recorder
	now     func() time.Time
}

// NewRelay wires the shared hub and history. persist may be nil when
// durable storage is disabled.
func NewRelay(hub *Hub, history *History, persist Persister, rec Recorder) *Relay {
	return &Relay{
		hub:     hub,
		history: history,
		persist: persist,
		rec:     recorderOrNop(rec),
		now:     time.Now,
	}
}

// Submit stamps the message with the server clock, records it and
// broadcasts it. The durable write happens off this path.
func (r *Relay) Submit(user, text string) Message {
	msg := Message{
		User: user,
		Text: text,
		TS:   r.now().Unix(),
	}

	r.history.Append(msg)
	if r.persist != nil && !r.persist.Enqueue(msg) {
		r.rec.Incr(MetricPersistSkips, 1)
	}
	r.hub.Publish(msg)
	return msg
}

// Hub returns the broadcast hub.
func (r *Relay) Hub() *Hub { return r.hub }

// History returns the shared history buffer.
func (r *Relay) History() *History { return r.history }
