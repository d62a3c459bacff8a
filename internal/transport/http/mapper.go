package http

import (
	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/proto"
)

func wireFromMessage(msg core.Message) proto.ChatMessage {
	return proto.ChatMessage{
		User: msg.User,
		Text: msg.Text,
		TS:   msg.TS,
	}
}

func wireFromHistory(msgs []core.Message) []proto.ChatMessage {
	out := make([]proto.ChatMessage, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, wireFromMessage(msg))
	}
	return out
}
