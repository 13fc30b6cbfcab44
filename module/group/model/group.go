package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const GroupTableName = "groups"

// Member is one entry of the durable roster. Durable membership is distinct
// from the live broadcast set: a roster member receives group messages only
// after an explicit join on a live connection.
type Member struct {
	User    string `bson:"user" json:"user"`
	IsAdmin bool   `bson:"isAdmin" json:"isAdmin"`
}

type Group struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Avatar    string             `bson:"avatar" json:"avatar"`
	UserInfo  []Member           `bson:"userInfo" json:"userInfo"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (*Group) TableName() string { return GroupTableName }
