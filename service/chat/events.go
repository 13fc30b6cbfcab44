package chat

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"chatrelay/tools/errs"
)

// Client -> server events.
const (
	EventSendPrivateMessage = "send_private_message"
	EventSendGroupMessage   = "send_group_message"
	EventJoinGroup          = "join_group"
	EventLeaveGroup         = "leave_group"
	EventFetchMessages      = "fetch_messages"
	EventDeleteMessage      = "delete_message"
	EventTyping             = "typing"
)

// Server -> client events.
const (
	EventPrivateMessage = "private_message"
	EventGroupMessage   = "group_message"
	EventMessageHistory = "message_history"
	EventMessageDeleted = "message_deleted"
	EventUserTyping     = "user_typing"
	EventError          = "error"
)

// Frame is the wire envelope for both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrorPayload is the data of an EventError frame, reported only to the
// connection whose event failed.
type ErrorPayload struct {
	Event   string `json:"event"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var validate = validator.New()

// ParseFrame decodes a raw inbound frame. Malformed envelopes are a
// ValidationError; unknown events are caught later by the dispatcher.
func ParseFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errs.ErrValidation.WrapMsg("malformed frame")
	}
	if f.Event == "" {
		return nil, errs.ErrValidation.WrapMsg("event required")
	}
	return &f, nil
}

// EncodeFrame builds an outbound frame.
func EncodeFrame(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, errs.WrapMsg(err, "marshal frame data failed", "event", event)
	}
	return json.Marshal(&Frame{Event: event, Data: payload})
}

// DecodePayload unmarshals event data into a typed payload and runs the
// struct validation tags. Every failure maps to ValidationError so
// duck-typed client payloads can never fail deeper in a handler.
func DecodePayload[T any](raw json.RawMessage) (*T, error) {
	var p T
	if len(raw) == 0 {
		return nil, errs.ErrValidation.WrapMsg("payload required")
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errs.ErrValidation.WrapMsg("malformed payload")
	}
	if err := validate.Struct(&p); err != nil {
		return nil, errs.ErrValidation.WrapMsg(err.Error())
	}
	return &p, nil
}

// SendPrivatePayload creates a user-addressed message.
type SendPrivatePayload struct {
	From      string   `json:"from" validate:"required"`
	To        string   `json:"to" validate:"required"`
	Content   string   `json:"content"`
	ImageURL  []string `json:"imageUrl"`
	Reference string   `json:"reference"`
}

// SendGroupPayload creates a group-addressed message; To is the group id.
type SendGroupPayload struct {
	From      string   `json:"from" validate:"required"`
	To        string   `json:"to" validate:"required"`
	Content   string   `json:"content"`
	ImageURL  []string `json:"imageUrl"`
	Reference string   `json:"reference"`
}

// GroupMembershipPayload serves join_group and leave_group.
type GroupMembershipPayload struct {
	GroupID string `json:"groupId" validate:"required"`
	UserID  string `json:"userId" validate:"required"`
}

// FetchMessagesPayload requests conversation history.
type FetchMessagesPayload struct {
	UserID     string `json:"userId" validate:"required"`
	ChatWithID string `json:"chatWithId" validate:"required"`
	IsGroup    bool   `json:"isGroup"`
}

// DeleteMessagePayload soft-deletes a message. The client echoes back the
// record it wants removed; authorization compares its from field.
type DeleteMessagePayload struct {
	Message DeleteMessageRef `json:"message" validate:"required"`
	UserID  string           `json:"userId" validate:"required"`
}

type DeleteMessageRef struct {
	ID   string `json:"_id" validate:"required"`
	From string `json:"from" validate:"required"`
}

// TypingPayload is ephemeral, never persisted.
type TypingPayload struct {
	From    string `json:"from" validate:"required"`
	To      string `json:"to" validate:"required"`
	Typing  bool   `json:"typing"`
	IsGroup bool   `json:"isGroup"`
}
