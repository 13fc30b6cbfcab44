package handlers

import (
	"context"
	"encoding/json"
	"strings"

	chatmodel "chatrelay/module/chat/model"
	"chatrelay/service/chat"
	"chatrelay/tools/errs"
)

// DeleteMessage soft-deletes a record and notifies the conversation's live
// participants. Authorization compares the payload's claimed sender against
// the requesting identity; on mismatch the record is untouched. Deleting an
// already-deleted message succeeds and re-broadcasts.
type DeleteMessage struct{}

func (DeleteMessage) Event() string { return chat.EventDeleteMessage }

type deletedNotice struct {
	ID string `json:"_id"`
}

func (DeleteMessage) Handle(ctx context.Context, c *chat.Context, data json.RawMessage) error {
	p, err := chat.DecodePayload[chat.DeleteMessagePayload](data)
	if err != nil {
		return err
	}

	if strings.TrimSpace(p.Message.From) != strings.TrimSpace(p.UserID) {
		return errs.ErrUnauthorized.WithDetail("only the sender can delete a message")
	}

	deleted, err := c.S.Store().UpdateStatus(ctx, p.Message.ID, chatmodel.StatusDeleted)
	if err != nil {
		return err
	}

	payload, err := chat.EncodeFrame(chat.EventMessageDeleted, &deletedNotice{ID: deleted.ID.Hex()})
	if err != nil {
		return err
	}
	var conns []*chat.Client
	if deleted.IsGroup {
		conns = c.S.Fan().Resolve(c.S.Groups().Members(deleted.To)...)
	} else {
		conns = c.S.Fan().Resolve(deleted.To, deleted.From)
	}
	c.S.Fan().Broadcast(conns, payload)
	return nil
}
