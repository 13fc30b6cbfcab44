package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MessageTableName = "messages"

// Status is a one-way transition: ACTIVE -> DELETED. Records are never
// hard-deleted; history keeps soft-deleted entries unless callers filter.
const (
	StatusActive  = "ACTIVE"
	StatusDeleted = "DELETED"
)

// ToRef mirrors the polymorphic recipient of the wire format.
const (
	ToRefUser  = "User"
	ToRefGroup = "Group"
)

// Message is the durable chat record. Immutable after create except Status.
type Message struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	From    string             `bson:"from" json:"from"`
	To      string             `bson:"to" json:"to"` // userId or groupId, per ToRef
	ToRef   string             `bson:"toRef" json:"toRef"`
	IsGroup bool               `bson:"isGroup" json:"isGroup"`
	Content string             `bson:"content,omitempty" json:"content,omitempty"`
	// image attachments are stored by URL; upload itself is out of scope
	ImageURL []string `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	// ownership-free back-link to a prior message (reply-to)
	Reference *primitive.ObjectID `bson:"reference,omitempty" json:"reference,omitempty"`
	Status    string              `bson:"status" json:"status"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

func (*Message) TableName() string { return MessageTableName }
