package handlers

import (
	"context"
	"encoding/json"

	"chatrelay/logger"
	"chatrelay/service/chat"
)

// FetchMessages replies with the full conversation history, oldest first,
// soft-deleted records included. The reply goes to the requesting connection
// only, never through fan-out.
type FetchMessages struct{}

func (FetchMessages) Event() string { return chat.EventFetchMessages }

func (FetchMessages) Handle(ctx context.Context, c *chat.Context, data json.RawMessage) error {
	p, err := chat.DecodePayload[chat.FetchMessagesPayload](data)
	if err != nil {
		return err
	}

	msgs, err := c.S.Store().FindConversation(ctx, p.UserID, p.ChatWithID, p.IsGroup)
	if err != nil {
		return err
	}

	views := make([]*MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, buildView(ctx, c.S, m, true))
	}

	payload, err := chat.EncodeFrame(chat.EventMessageHistory, views)
	if err != nil {
		return err
	}
	if !c.Client.Push(payload) {
		logger.Debugf("[chat] history dropped user=%s conn=%s", c.Client.UserID, c.Client.ConnID)
	}
	return nil
}
