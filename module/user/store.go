package user

import (
	"context"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	usermodel "chatrelay/module/user/model"
	"chatrelay/tools/errs"
)

// same avatar pool the original deployment seeded new accounts from
var avatars = []string{
	"https://cdn-icons-png.flaticon.com/512/6997/6997662.png",
	"https://cdn-icons-png.flaticon.com/128/1999/1999625.png",
	"https://cdn-icons-png.flaticon.com/128/2202/2202112.png",
	"https://cdn-icons-png.flaticon.com/128/4333/4333609.png",
	"https://cdn-icons-png.flaticon.com/128/4140/4140047.png",
	"https://cdn-icons-png.flaticon.com/128/706/706830.png",
	"https://cdn-icons-png.flaticon.com/128/706/706816.png",
	"https://cdn-icons-png.flaticon.com/128/219/219970.png",
	"https://cdn-icons-png.flaticon.com/128/706/706831.png",
	"https://cdn-icons-png.flaticon.com/128/4139/4139951.png",
	"https://cdn-icons-png.flaticon.com/128/4140/4140040.png",
	"https://cdn-icons-png.flaticon.com/128/2552/2552801.png",
	"https://cdn-icons-png.flaticon.com/128/4140/4140051.png",
	"https://cdn-icons-png.flaticon.com/128/1154/1154473.png",
	"https://cdn-icons-png.flaticon.com/128/4140/4140077.png",
}

type Store struct {
	coll *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(usermodel.UserTableName)}
}

// EnsureByName finds a user by case-insensitive name, creating one with a
// random avatar on first login.
func (s *Store) EnsureByName(ctx context.Context, userName string) (*usermodel.User, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, errs.ErrValidation.WrapMsg("userName required")
	}

	filter := bson.M{"userName": bson.M{
		"$regex":   "^" + regexp.QuoteMeta(userName) + "$",
		"$options": "i",
	}}
	var u usermodel.User
	err := s.coll.FindOne(ctx, filter).Decode(&u)
	if err == nil {
		return &u, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, errs.WrapMsg(err, "find user failed")
	}

	now := time.Now().UTC()
	u = usermodel.User{
		ID:        primitive.NewObjectID(),
		UserName:  userName,
		Avatar:    avatars[rand.Intn(len(avatars))],
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.coll.InsertOne(ctx, &u); err != nil {
		return nil, errs.WrapMsg(err, "create user failed")
	}
	return &u, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*usermodel.User, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, errs.ErrNotFound.WrapMsg("bad user id", "id", id)
	}
	var u usermodel.User
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("user not found", "id", id)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find user failed")
	}
	return &u, nil
}

// FindByIDs resolves a batch; missing ids are simply absent from the result.
func (s *Store) FindByIDs(ctx context.Context, ids []string) ([]*usermodel.User, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id)); err == nil {
			oids = append(oids, oid)
		}
	}
	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, errs.WrapMsg(err, "find users failed")
	}
	defer cur.Close(ctx)

	var out []*usermodel.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.WrapMsg(err, "decode users failed")
	}
	return out, nil
}

func (s *Store) List(ctx context.Context, excludeIDs []string) ([]*usermodel.User, error) {
	oids := make([]primitive.ObjectID, 0, len(excludeIDs))
	for _, id := range excludeIDs {
		if oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id)); err == nil {
			oids = append(oids, oid)
		}
	}
	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$nin": oids}})
	if err != nil {
		return nil, errs.WrapMsg(err, "list users failed")
	}
	defer cur.Close(ctx)

	var out []*usermodel.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.WrapMsg(err, "decode users failed")
	}
	return out, nil
}

// Profile implements the relay core's profile lookup used for message
// enrichment. Unknown identities resolve to a nil profile, not an error.
func (s *Store) Profile(ctx context.Context, userID string) (*usermodel.Profile, error) {
	u, err := s.FindByID(ctx, userID)
	if err != nil {
		if errs.Code(err) == errs.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return u.Profile(), nil
}
