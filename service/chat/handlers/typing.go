package handlers

import (
	"context"
	"encoding/json"

	"chatrelay/service/chat"
)

// Typing relays a typing indicator. Nothing is persisted and nothing is
// enriched; the recipient sees a bare boolean. The sender is excluded from
// group relays so an indicator never echoes back.
type Typing struct{}

func (Typing) Event() string { return chat.EventTyping }

func (Typing) Handle(_ context.Context, c *chat.Context, data json.RawMessage) error {
	p, err := chat.DecodePayload[chat.TypingPayload](data)
	if err != nil {
		return err
	}

	payload, err := chat.EncodeFrame(chat.EventUserTyping, p.Typing)
	if err != nil {
		return err
	}

	var conns []*chat.Client
	if p.IsGroup {
		members := c.S.Groups().Members(p.To)
		targets := make([]string, 0, len(members))
		for _, m := range members {
			if m != p.From {
				targets = append(targets, m)
			}
		}
		conns = c.S.Fan().Resolve(targets...)
	} else {
		conns = c.S.Fan().Resolve(p.To)
	}
	c.S.Fan().Broadcast(conns, payload)
	return nil
}
