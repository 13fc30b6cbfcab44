package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const UserTableName = "users"

// User is the user master record. Identity is asserted, not authenticated:
// the socket layer trusts whatever userId a client connects with.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserName  string             `bson:"userName" json:"userName"`
	Avatar    string             `bson:"avatar" json:"avatar"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (*User) TableName() string { return UserTableName }

// Profile is the slim projection embedded into enriched message payloads.
type Profile struct {
	ID       string `json:"_id"`
	UserName string `json:"userName"`
	Avatar   string `json:"avatar"`
}

func (u *User) Profile() *Profile {
	return &Profile{ID: u.ID.Hex(), UserName: u.UserName, Avatar: u.Avatar}
}
