// Package message is the Message Store: durable, append-mostly persistence
// for chat records with soft-delete status updates.
package message

import (
	"context"

	chatmodel "chatrelay/module/chat/model"
)

// Store is the interface the relay core talks to. The Mongo implementation
// backs production; the in-memory one backs tests and single-binary demos.
type Store interface {
	// Create persists a new record and returns it with id and timestamps set.
	Create(ctx context.Context, m *chatmodel.Message) (*chatmodel.Message, error)

	// FindByID returns errs.ErrNotFound when no record matches.
	FindByID(ctx context.Context, id string) (*chatmodel.Message, error)

	// FindConversation returns the history between two identities ascending by
	// creation time. For groups it is every message addressed to chatWithID;
	// otherwise every message between userID and chatWithID in either
	// direction. Soft-deleted records are included.
	FindConversation(ctx context.Context, userID, chatWithID string, isGroup bool) ([]*chatmodel.Message, error)

	// UpdateStatus transitions a record's status and returns the updated
	// record, or errs.ErrNotFound. Repeating a transition is a no-op.
	UpdateStatus(ctx context.Context, id, status string) (*chatmodel.Message, error)

	// FindUserChats returns every ACTIVE message involving userID directly or
	// addressed to one of groupIDs, newest first. Serves the chat-list REST
	// endpoint, not the socket channel.
	FindUserChats(ctx context.Context, userID string, groupIDs []string) ([]*chatmodel.Message, error)
}
