package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingField is returned when an inbound frame lacks user or text.
var ErrMissingField = errors.New("missing field")

// Inbound is a chat message submitted by a client.
// Any client supplied timestamp is ignored.
type Inbound struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// ChatMessage is the frame sent for live broadcasts and history replay.
type ChatMessage struct {
	User string `json:"user"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

type inboundWire struct {
	User *string `json:"user"`
	Text *string `json:"text"`
}

// DecodeInbound parses a client frame. Both fields must be present strings.
func DecodeInbound(data []byte) (Inbound, error) {
	var wire inboundWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return Inbound{}, fmt.Errorf("decode inbound: %w", err)
	}
	if wire.User == nil {
		return Inbound{}, fmt.Errorf("decode inbound: user: %w", ErrMissingField)
	}
	if wire.Text == nil {
		return Inbound{}, fmt.Errorf("decode inbound: text: %w", ErrMissingField)
	}
	return Inbound{User: *wire.User, Text: *wire.Text}, nil
}
