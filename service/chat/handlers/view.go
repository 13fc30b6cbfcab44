// Package handlers holds the per-event logic behind the socket dispatcher.
// Each handler decodes its payload, awaits the store, then re-resolves live
// delivery targets before fanning out.
package handlers

import (
	"context"

	"chatrelay/logger"
	chatmodel "chatrelay/module/chat/model"
	usermodel "chatrelay/module/user/model"
	"chatrelay/service/chat"
)

// MessageView is the enriched record pushed to clients: the durable fields
// plus the sender profile and, for replies, the referenced message with its
// own sender.
type MessageView struct {
	*chatmodel.Message
	Sender     *usermodel.Profile `json:"sender,omitempty"`
	RefMessage *MessageView       `json:"refMessage,omitempty"`
}

// buildView enriches a record. Enrichment is best effort: a failed profile
// or reference lookup logs and leaves the field empty, it never fails the
// operation that produced the record.
func buildView(ctx context.Context, s *chat.Server, m *chatmodel.Message, withRef bool) *MessageView {
	v := &MessageView{Message: m}

	if s.Profiles() != nil {
		sender, err := s.Profiles().Profile(ctx, m.From)
		if err != nil {
			logger.Warnf("[chat] sender lookup failed user=%s: %v", m.From, err)
		} else {
			v.Sender = sender
		}
	}

	if withRef && m.Reference != nil {
		ref, err := s.Store().FindByID(ctx, m.Reference.Hex())
		if err != nil {
			logger.Warnf("[chat] reference lookup failed id=%s: %v", m.Reference.Hex(), err)
		} else {
			v.RefMessage = buildView(ctx, s, ref, false)
		}
	}
	return v
}
