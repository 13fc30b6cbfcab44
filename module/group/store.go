package group

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	groupmodel "chatrelay/module/group/model"
	"chatrelay/tools/errs"
)

var groupAvatars = []string{
	"https://cdn-icons-png.flaticon.com/128/1474/1474494.png",
	"https://cdn-icons-png.flaticon.com/128/6556/6556024.png",
	"https://cdn-icons-png.flaticon.com/128/4596/4596136.png",
}

type Store struct {
	coll *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(groupmodel.GroupTableName)}
}

func (s *Store) Create(ctx context.Context, name string, members []groupmodel.Member) (*groupmodel.Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errs.ErrValidation.WrapMsg("group name required")
	}
	now := time.Now().UTC()
	g := &groupmodel.Group{
		ID:        primitive.NewObjectID(),
		Name:      strings.TrimSpace(name),
		Avatar:    groupAvatars[rand.Intn(len(groupAvatars))],
		UserInfo:  members,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.coll.InsertOne(ctx, g); err != nil {
		return nil, errs.WrapMsg(err, "create group failed")
	}
	return g, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*groupmodel.Group, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, errs.ErrNotFound.WrapMsg("bad group id", "id", id)
	}
	var g groupmodel.Group
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("group not found", "id", id)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find group failed")
	}
	return &g, nil
}

// AddMembers appends the ids not already on the roster, returning how many
// were added.
func (s *Store) AddMembers(ctx context.Context, groupID string, userIDs []string) (int, error) {
	g, err := s.FindByID(ctx, groupID)
	if err != nil {
		return 0, err
	}

	existing := make(map[string]struct{}, len(g.UserInfo))
	for _, m := range g.UserInfo {
		existing[m.User] = struct{}{}
	}

	var added []groupmodel.Member
	for _, id := range userIDs {
		if _, ok := existing[id]; !ok {
			added = append(added, groupmodel.Member{User: id, IsAdmin: false})
		}
	}
	if len(added) == 0 {
		return 0, errs.ErrValidation.WrapMsg("all users are already in the group")
	}

	_, err = s.coll.UpdateOne(ctx,
		bson.M{"_id": g.ID},
		bson.M{
			"$push": bson.M{"userInfo": bson.M{"$each": added}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return 0, errs.WrapMsg(err, "add group members failed")
	}
	return len(added), nil
}

func (s *Store) RemoveMember(ctx context.Context, groupID, userID string) error {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(groupID))
	if err != nil {
		return errs.ErrNotFound.WrapMsg("bad group id", "id", groupID)
	}
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$pull": bson.M{"userInfo": bson.M{"user": userID}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return errs.WrapMsg(err, "remove group member failed")
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound.WrapMsg("group not found", "id", groupID)
	}
	return nil
}

// FindByUser returns every group whose durable roster contains userID.
func (s *Store) FindByUser(ctx context.Context, userID string) ([]*groupmodel.Group, error) {
	cur, err := s.coll.Find(ctx, bson.M{"userInfo.user": userID})
	if err != nil {
		return nil, errs.WrapMsg(err, "find groups by user failed")
	}
	defer cur.Close(ctx)

	var out []*groupmodel.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.WrapMsg(err, "decode groups failed")
	}
	return out, nil
}
