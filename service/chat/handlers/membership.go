package handlers

import (
	"context"
	"encoding/json"

	"chatrelay/logger"
	"chatrelay/service/chat"
)

// JoinGroup subscribes the user to a group's live broadcasts. The table is
// in-memory only; clients re-join after every reconnect.
type JoinGroup struct{}

func (JoinGroup) Event() string { return chat.EventJoinGroup }

func (JoinGroup) Handle(_ context.Context, c *chat.Context, data json.RawMessage) error {
	p, err := chat.DecodePayload[chat.GroupMembershipPayload](data)
	if err != nil {
		return err
	}
	c.S.Groups().Join(p.GroupID, p.UserID)
	logger.Infof("[chat] user %s joined group %s", p.UserID, p.GroupID)
	return nil
}

// LeaveGroup unsubscribes the user from a group's live broadcasts. Unknown
// groups or members are a silent no-op.
type LeaveGroup struct{}

func (LeaveGroup) Event() string { return chat.EventLeaveGroup }

func (LeaveGroup) Handle(_ context.Context, c *chat.Context, data json.RawMessage) error {
	p, err := chat.DecodePayload[chat.GroupMembershipPayload](data)
	if err != nil {
		return err
	}
	c.S.Groups().Leave(p.GroupID, p.UserID)
	logger.Infof("[chat] user %s left group %s", p.UserID, p.GroupID)
	return nil
}
