package core

// Message is the domain model for a chat message.
// Values are immutable once stamped by the relay.
type Message struct {
	User string
	Text string
	TS   int64 // unix seconds, server assigned
}
