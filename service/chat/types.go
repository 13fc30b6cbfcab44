package chat

import (
	"context"
	"encoding/json"

	usermodel "chatrelay/module/user/model"
)

// Handler processes one inbound event kind.
type Handler interface {
	Event() string
	Handle(ctx context.Context, c *Context, data json.RawMessage) error
}

// Context is what a handler sees: the server's shared state plus the
// connection the event arrived on.
type Context struct {
	S      *Server
	Client *Client
}

// ProfileResolver supplies sender profiles for message enrichment. Unknown
// identities resolve to (nil, nil): enrichment degrades, sends don't fail.
type ProfileResolver interface {
	Profile(ctx context.Context, userID string) (*usermodel.Profile, error)
}
