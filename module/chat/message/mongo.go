package message

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	chatmodel "chatrelay/module/chat/model"
	"chatrelay/tools/errs"
)

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(chatmodel.MessageTableName)}
}

func (s *MongoStore) Create(ctx context.Context, m *chatmodel.Message) (*chatmodel.Message, error) {
	now := time.Now().UTC()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.Status == "" {
		m.Status = chatmodel.StatusActive
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, m); err != nil {
		return nil, errs.WrapMsg(err, "insert message failed")
	}
	return m, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*chatmodel.Message, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, errs.ErrNotFound.WrapMsg("bad message id", "id", id)
	}
	var m chatmodel.Message
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("message not found", "id", id)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find message failed")
	}
	return &m, nil
}

func (s *MongoStore) FindConversation(ctx context.Context, userID, chatWithID string, isGroup bool) ([]*chatmodel.Message, error) {
	userID = strings.TrimSpace(userID)
	chatWithID = strings.TrimSpace(chatWithID)

	var filter bson.M
	if isGroup {
		filter = bson.M{"to": chatWithID, "isGroup": true}
	} else {
		filter = bson.M{"$or": bson.A{
			bson.M{"from": userID, "to": chatWithID, "isGroup": false},
			bson.M{"from": chatWithID, "to": userID, "isGroup": false},
		}}
	}

	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, errs.WrapMsg(err, "find conversation failed")
	}
	defer cur.Close(ctx)

	var out []*chatmodel.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.WrapMsg(err, "decode conversation failed")
	}
	return out, nil
}

func (s *MongoStore) UpdateStatus(ctx context.Context, id, status string) (*chatmodel.Message, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, errs.ErrNotFound.WrapMsg("bad message id", "id", id)
	}

	after := options.After
	var m chatmodel.Message
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("message not found", "id", id)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "update message status failed")
	}
	return &m, nil
}

func (s *MongoStore) FindUserChats(ctx context.Context, userID string, groupIDs []string) ([]*chatmodel.Message, error) {
	filter := bson.M{
		"status": chatmodel.StatusActive,
		"$or": bson.A{
			bson.M{"from": userID, "isGroup": false},
			bson.M{"to": userID, "isGroup": false},
			bson.M{"to": bson.M{"$in": groupIDs}, "isGroup": true},
		},
	}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, errs.WrapMsg(err, "find user chats failed")
	}
	defer cur.Close(ctx)

	var out []*chatmodel.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.WrapMsg(err, "decode user chats failed")
	}
	return out, nil
}
