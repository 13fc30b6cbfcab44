package handlers

import (
	"context"
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson/primitive"

	chatmodel "chatrelay/module/chat/model"
	"chatrelay/service/chat"
	"chatrelay/tools/errs"
)

// PrivateMessage persists a user-addressed message and delivers the enriched
// record to both sides of the conversation, as they are connected after the
// write lands.
type PrivateMessage struct{}

func (PrivateMessage) Event() string { return chat.EventSendPrivateMessage }

func (PrivateMessage) Handle(ctx context.Context, c *chat.Context, data json.RawMessage) error {
	p, err := chat.DecodePayload[chat.SendPrivatePayload](data)
	if err != nil {
		return err
	}

	msg := &chatmodel.Message{
		From:     p.From,
		To:       p.To,
		ToRef:    chatmodel.ToRefUser,
		IsGroup:  false,
		Content:  p.Content,
		ImageURL: p.ImageURL,
	}
	if p.Reference != "" {
		oid, oerr := primitive.ObjectIDFromHex(p.Reference)
		if oerr != nil {
			return errs.ErrValidation.WrapMsg("bad reference id", "reference", p.Reference)
		}
		msg.Reference = &oid
	}

	saved, err := c.S.Store().Create(ctx, msg)
	if err != nil {
		return err
	}

	payload, err := chat.EncodeFrame(chat.EventPrivateMessage, buildView(ctx, c.S, saved, true))
	if err != nil {
		return err
	}
	// registry state may have changed during the store await
	c.S.Fan().Broadcast(c.S.Fan().Resolve(p.To, p.From), payload)
	return nil
}
