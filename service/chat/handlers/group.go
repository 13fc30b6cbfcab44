package handlers

import (
	"context"
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson/primitive"

	chatmodel "chatrelay/module/chat/model"
	"chatrelay/service/chat"
	"chatrelay/tools/errs"
)

// GroupMessage persists a group-addressed message and delivers it to the
// group's live members. Delivery follows the membership table, not the
// durable roster: a roster member who never joined on this process gets
// nothing live, and the sender only hears their own message back if they
// joined too.
type GroupMessage struct{}

func (GroupMessage) Event() string { return chat.EventSendGroupMessage }

func (GroupMessage) Handle(ctx context.Context, c *chat.Context, data json.RawMessage) error {
	p, err := chat.DecodePayload[chat.SendGroupPayload](data)
	if err != nil {
		return err
	}

	msg := &chatmodel.Message{
		From:     p.From,
		To:       p.To,
		ToRef:    chatmodel.ToRefGroup,
		IsGroup:  true,
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

	payload, err := chat.EncodeFrame(chat.EventGroupMessage, buildView(ctx, c.S, saved, true))
	if err != nil {
		return err
	}
	members := c.S.Groups().Members(p.To)
	c.S.Fan().Broadcast(c.S.Fan().Resolve(members...), payload)
	return nil
}
