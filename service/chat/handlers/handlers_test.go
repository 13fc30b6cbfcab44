package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/module/chat/message"
	chatmodel "chatrelay/module/chat/model"
	usermodel "chatrelay/module/user/model"
	"chatrelay/service/chat"
	"chatrelay/tools/errs"
)

type profiles map[string]*usermodel.Profile

func (p profiles) Profile(_ context.Context, userID string) (*usermodel.Profile, error) {
	return p[userID], nil
}

func newRelay(t *testing.T) (*chat.Server, *message.MemStore) {
	t.Helper()
	store := message.NewMemStore()
	srv := chat.NewServer(chat.Options{
		NodeID: "test-1",
		Store:  store,
		Profiles: profiles{
			"alice": {ID: "alice", UserName: "Alice", Avatar: "a.png"},
			"bob":   {ID: "bob", UserName: "Bob", Avatar: "b.png"},
		},
		SendQueueSize: 16,
		FanoutWorkers: 1,
		FanoutQueue:   16,
	})
	t.Cleanup(srv.Close)
	return srv, store
}

var connSeq int

func connect(srv *chat.Server, userID string) *chat.Client {
	connSeq++
	c := chat.NewClient(fmt.Sprintf("conn-%d", connSeq), userID, nil, 16)
	srv.Reg().Register(userID, c)
	return c
}

func dispatch(t *testing.T, srv *chat.Server, from *chat.Client, h chat.Handler, payload any) error {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return h.Handle(context.Background(), &chat.Context{S: srv, Client: from}, raw)
}

func recvFrame(t *testing.T, c *chat.Client) *chat.Frame {
	t.Helper()
	select {
	case raw := <-c.Send:
		f, err := chat.ParseFrame(raw)
		require.NoError(t, err)
		return f
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame delivered to %s", c.UserID)
		return nil
	}
}

func recvView(t *testing.T, c *chat.Client, wantEvent string) *MessageView {
	t.Helper()
	f := recvFrame(t, c)
	require.Equal(t, wantEvent, f.Event)
	var v MessageView
	require.NoError(t, json.Unmarshal(f.Data, &v))
	return &v
}

func assertSilent(t *testing.T, c *chat.Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("unexpected frame for %s: %s", c.UserID, raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPrivateMessageDeliversToBothSides(t *testing.T) {
	srv, store := newRelay(t)
	alice := connect(srv, "alice")
	bob := connect(srv, "bob")

	err := dispatch(t, srv, alice, PrivateMessage{}, map[string]any{
		"from": "alice", "to": "bob", "content": "hi bob",
	})
	require.NoError(t, err)

	for _, c := range []*chat.Client{alice, bob} {
		v := recvView(t, c, chat.EventPrivateMessage)
		assert.Equal(t, "hi bob", v.Content)
		assert.Equal(t, "alice", v.From)
		assert.Equal(t, chatmodel.StatusActive, v.Status)
		require.NotNil(t, v.Sender)
		assert.Equal(t, "Alice", v.Sender.UserName)
	}

	msgs, err := store.FindConversation(context.Background(), "alice", "bob", false)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestPrivateMessageSelfDeliversOnce(t *testing.T) {
	srv, _ := newRelay(t)
	alice := connect(srv, "alice")

	err := dispatch(t, srv, alice, PrivateMessage{}, map[string]any{
		"from": "alice", "to": "alice", "content": "note to self",
	})
	require.NoError(t, err)

	recvView(t, alice, chat.EventPrivateMessage)
	assertSilent(t, alice)
}

func TestPrivateMessageOfflineRecipientPersists(t *testing.T) {
	srv, store := newRelay(t)
	alice := connect(srv, "alice")

	err := dispatch(t, srv, alice, PrivateMessage{}, map[string]any{
		"from": "alice", "to": "bob", "content": "are you there",
	})
	require.NoError(t, err)

	// sender still gets the echo, nobody else is live
	recvView(t, alice, chat.EventPrivateMessage)

	msgs, err := store.FindConversation(context.Background(), "bob", "alice", false)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "are you there", msgs[0].Content)

	// bob connects later and catches up via history
	bob := connect(srv, "bob")
	err = dispatch(t, srv, bob, FetchMessages{}, map[string]any{
		"userId": "bob", "chatWithId": "alice",
	})
	require.NoError(t, err)

	f := recvFrame(t, bob)
	assert.Equal(t, chat.EventMessageHistory, f.Event)
	var views []*MessageView
	require.NoError(t, json.Unmarshal(f.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "are you there", views[0].Content)
}

func TestPrivateMessageMissingRecipientIsValidationError(t *testing.T) {
	srv, store := newRelay(t)
	alice := connect(srv, "alice")

	err := dispatch(t, srv, alice, PrivateMessage{}, map[string]any{
		"from": "alice", "content": "to nobody",
	})
	require.Error(t, err)
	assert.Equal(t, errs.CodeValidation, errs.Code(err))

	msgs, _ := store.FindConversation(context.Background(), "alice", "", false)
	assert.Empty(t, msgs)
}

func TestPrivateMessageBadReference(t *testing.T) {
	srv, _ := newRelay(t)
	alice := connect(srv, "alice")

	err := dispatch(t, srv, alice, PrivateMessage{}, map[string]any{
		"from": "alice", "to": "bob", "content": "x", "reference": "not-an-oid",
	})
	require.Error(t, err)
	assert.Equal(t, errs.CodeValidation, errs.Code(err))
}

func TestPrivateMessageReplyEmbedsReference(t *testing.T) {
	srv, store := newRelay(t)
	alice := connect(srv, "alice")
	bob := connect(srv, "bob")

	orig, err := store.Create(context.Background(), &chatmodel.Message{
		From: "bob", To: "alice", ToRef: chatmodel.ToRefUser, Content: "original",
	})
	require.NoError(t, err)

	err = dispatch(t, srv, alice, PrivateMessage{}, map[string]any{
		"from": "alice", "to": "bob", "content": "replying", "reference": orig.ID.Hex(),
	})
	require.NoError(t, err)

	v := recvView(t, alice, chat.EventPrivateMessage)
	require.NotNil(t, v.RefMessage)
	assert.Equal(t, "original", v.RefMessage.Content)
	require.NotNil(t, v.RefMessage.Sender)
	assert.Equal(t, "Bob", v.RefMessage.Sender.UserName)
	recvView(t, bob, chat.EventPrivateMessage)
}

func TestGroupMessageFollowsLiveMembership(t *testing.T) {
	srv, store := newRelay(t)
	alice := connect(srv, "alice")
	bob := connect(srv, "bob")
	carol := connect(srv, "carol") // connected but never joined

	require.NoError(t, dispatch(t, srv, alice, JoinGroup{}, map[string]any{"groupId": "g1", "userId": "alice"}))
	require.NoError(t, dispatch(t, srv, bob, JoinGroup{}, map[string]any{"groupId": "g1", "userId": "bob"}))

	err := dispatch(t, srv, alice, GroupMessage{}, map[string]any{
		"from": "alice", "to": "g1", "content": "hello group",
	})
	require.NoError(t, err)

	for _, c := range []*chat.Client{alice, bob} {
		v := recvView(t, c, chat.EventGroupMessage)
		assert.Equal(t, "hello group", v.Content)
		assert.True(t, v.IsGroup)
		assert.Equal(t, "g1", v.To)
	}
	assertSilent(t, carol)

	msgs, err := store.FindConversation(context.Background(), "alice", "g1", true)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestGroupMessageSenderNotJoinedGetsNoEcho(t *testing.T) {
	srv, store := newRelay(t)
	alice := connect(srv, "alice")
	bob := connect(srv, "bob")

	require.NoError(t, dispatch(t, srv, bob, JoinGroup{}, map[string]any{"groupId": "g1", "userId": "bob"}))

	err := dispatch(t, srv, alice, GroupMessage{}, map[string]any{
		"from": "alice", "to": "g1", "content": "drive-by",
	})
	require.NoError(t, err)

	recvView(t, bob, chat.EventGroupMessage)
	assertSilent(t, alice)

	// persisted regardless of who was live
	msgs, _ := store.FindConversation(context.Background(), "alice", "g1", true)
	assert.Len(t, msgs, 1)
}

func TestGroupMessageNobodyJoinedStillPersists(t *testing.T) {
	srv, store := newRelay(t)
	alice := connect(srv, "alice")

	err := dispatch(t, srv, alice, GroupMessage{}, map[string]any{
		"from": "alice", "to": "g9", "content": "into the void",
	})
	require.NoError(t, err)
	assertSilent(t, alice)

	msgs, _ := store.FindConversation(context.Background(), "alice", "g9", true)
	assert.Len(t, msgs, 1)
}

func TestLeaveGroupStopsDelivery(t *testing.T) {
	srv, _ := newRelay(t)
	alice := connect(srv, "alice")
	bob := connect(srv, "bob")

	require.NoError(t, dispatch(t, srv, alice, JoinGroup{}, map[string]any{"groupId": "g1", "userId": "alice"}))
	require.NoError(t, dispatch(t, srv, bob, JoinGroup{}, map[string]any{"groupId": "g1", "userId": "bob"}))
	require.NoError(t, dispatch(t, srv, bob, LeaveGroup{}, map[string]any{"groupId": "g1", "userId": "bob"}))

	require.NoError(t, dispatch(t, srv, alice, GroupMessage{}, map[string]any{
		"from": "alice", "to": "g1", "content": "after leave",
	}))

	recvView(t, alice, chat.EventGroupMessage)
	assertSilent(t, bob)
}

func TestFetchMessagesAscendingIncludesDeleted(t *testing.T) {
	srv, store := newRelay(t)
	bob := connect(srv, "bob")

	ctx := context.Background()
	m1, _ := store.Create(ctx, &chatmodel.Message{From: "alice", To: "bob", ToRef: chatmodel.ToRefUser, Content: "first"})
	store.Create(ctx, &chatmodel.Message{From: "bob", To: "alice", ToRef: chatmodel.ToRefUser, Content: "second"})
	_, err := store.UpdateStatus(ctx, m1.ID.Hex(), chatmodel.StatusDeleted)
	require.NoError(t, err)

	require.NoError(t, dispatch(t, srv, bob, FetchMessages{}, map[string]any{
		"userId": "bob", "chatWithId": "alice",
	}))

	f := recvFrame(t, bob)
	require.Equal(t, chat.EventMessageHistory, f.Event)
	var views []*MessageView
	require.NoError(t, json.Unmarshal(f.Data, &views))
	require.Len(t, views, 2)
	assert.Equal(t, "first", views[0].Content)
	assert.Equal(t, chatmodel.StatusDeleted, views[0].Status)
	assert.Equal(t, "second", views[1].Content)
	assert.Equal(t, chatmodel.StatusActive, views[1].Status)
}

func TestFetchMessagesOnlyRequesterReceives(t *testing.T) {
	srv, store := newRelay(t)
	alice := connect(srv, "alice")
	bob := connect(srv, "bob")

	store.Create(context.Background(), &chatmodel.Message{From: "alice", To: "bob", ToRef: chatmodel.ToRefUser, Content: "x"})

	require.NoError(t, dispatch(t, srv, bob, FetchMessages{}, map[string]any{
		"userId": "bob", "chatWithId": "alice",
	}))

	recvFrame(t, bob)
	assertSilent(t, alice)
}

func TestDeleteMessageUnauthorized(t *testing.T) {
	srv, store := newRelay(t)
	bob := connect(srv, "bob")

	m, _ := store.Create(context.Background(), &chatmodel.Message{
		From: "alice", To: "bob", ToRef: chatmodel.ToRefUser, Content: "mine",
	})

	err := dispatch(t, srv, bob, DeleteMessage{}, map[string]any{
		"message": map[string]any{"_id": m.ID.Hex(), "from": "alice"},
		"userId":  "bob",
	})
	require.Error(t, err)
	assert.Equal(t, errs.CodeUnauthorized, errs.Code(err))

	got, _ := store.FindByID(context.Background(), m.ID.Hex())
	assert.Equal(t, chatmodel.StatusActive, got.Status)
	assertSilent(t, bob)
}

func TestDeleteMessageBySender(t *testing.T) {
	srv, store := newRelay(t)
	alice := connect(srv, "alice")
	bob := connect(srv, "bob")

	m, _ := store.Create(context.Background(), &chatmodel.Message{
		From: "alice", To: "bob", ToRef: chatmodel.ToRefUser, Content: "oops",
	})

	payload := map[string]any{
		"message": map[string]any{"_id": m.ID.Hex(), "from": "alice"},
		"userId":  "alice",
	}
	require.NoError(t, dispatch(t, srv, alice, DeleteMessage{}, payload))

	for _, c := range []*chat.Client{alice, bob} {
		f := recvFrame(t, c)
		assert.Equal(t, chat.EventMessageDeleted, f.Event)
		var n struct {
			ID string `json:"_id"`
		}
		require.NoError(t, json.Unmarshal(f.Data, &n))
		assert.Equal(t, m.ID.Hex(), n.ID)
	}

	got, _ := store.FindByID(context.Background(), m.ID.Hex())
	assert.Equal(t, chatmodel.StatusDeleted, got.Status)

	// deleting again is not an error
	require.NoError(t, dispatch(t, srv, alice, DeleteMessage{}, payload))
	recvFrame(t, alice)
	recvFrame(t, bob)
}

func TestDeleteMessageNotFound(t *testing.T) {
	srv, _ := newRelay(t)
	alice := connect(srv, "alice")

	err := dispatch(t, srv, alice, DeleteMessage{}, map[string]any{
		"message": map[string]any{"_id": "64b000000000000000000000", "from": "alice"},
		"userId":  "alice",
	})
	require.Error(t, err)
	assert.Equal(t, errs.CodeNotFound, errs.Code(err))
}

func TestDeleteGroupMessageReachesLiveMembers(t *testing.T) {
	srv, store := newRelay(t)
	alice := connect(srv, "alice")
	bob := connect(srv, "bob")
	carol := connect(srv, "carol")

	require.NoError(t, dispatch(t, srv, alice, JoinGroup{}, map[string]any{"groupId": "g1", "userId": "alice"}))
	require.NoError(t, dispatch(t, srv, bob, JoinGroup{}, map[string]any{"groupId": "g1", "userId": "bob"}))

	m, _ := store.Create(context.Background(), &chatmodel.Message{
		From: "alice", To: "g1", ToRef: chatmodel.ToRefGroup, IsGroup: true, Content: "gone soon",
	})

	require.NoError(t, dispatch(t, srv, alice, DeleteMessage{}, map[string]any{
		"message": map[string]any{"_id": m.ID.Hex(), "from": "alice"},
		"userId":  "alice",
	}))

	for _, c := range []*chat.Client{alice, bob} {
		f := recvFrame(t, c)
		assert.Equal(t, chat.EventMessageDeleted, f.Event)
	}
	assertSilent(t, carol)
}

func TestTypingPrivate(t *testing.T) {
	srv, _ := newRelay(t)
	alice := connect(srv, "alice")
	bob := connect(srv, "bob")

	require.NoError(t, dispatch(t, srv, alice, Typing{}, map[string]any{
		"from": "alice", "to": "bob", "typing": true,
	}))

	f := recvFrame(t, bob)
	assert.Equal(t, chat.EventUserTyping, f.Event)
	assert.Equal(t, "true", string(f.Data))
	assertSilent(t, alice)
}

func TestTypingGroupExcludesSender(t *testing.T) {
	srv, _ := newRelay(t)
	alice := connect(srv, "alice")
	bob := connect(srv, "bob")

	require.NoError(t, dispatch(t, srv, alice, JoinGroup{}, map[string]any{"groupId": "g1", "userId": "alice"}))
	require.NoError(t, dispatch(t, srv, bob, JoinGroup{}, map[string]any{"groupId": "g1", "userId": "bob"}))

	require.NoError(t, dispatch(t, srv, alice, Typing{}, map[string]any{
		"from": "alice", "to": "g1", "typing": false, "isGroup": true,
	}))

	f := recvFrame(t, bob)
	assert.Equal(t, chat.EventUserTyping, f.Event)
	assert.Equal(t, "false", string(f.Data))
	assertSilent(t, alice)
}

func TestTypingOfflineRecipientNoError(t *testing.T) {
	srv, _ := newRelay(t)
	alice := connect(srv, "alice")

	require.NoError(t, dispatch(t, srv, alice, Typing{}, map[string]any{
		"from": "alice", "to": "ghost", "typing": true,
	}))
	assertSilent(t, alice)
}

func TestEnrichmentDegradesForUnknownSender(t *testing.T) {
	srv, _ := newRelay(t)
	zed := connect(srv, "zed") // no profile configured

	require.NoError(t, dispatch(t, srv, zed, PrivateMessage{}, map[string]any{
		"from": "zed", "to": "nobody", "content": "anonymous",
	}))

	v := recvView(t, zed, chat.EventPrivateMessage)
	assert.Equal(t, "anonymous", v.Content)
	assert.Nil(t, v.Sender)
}

func TestReconnectReceivesOnNewHandleOnly(t *testing.T) {
	srv, _ := newRelay(t)
	alice := connect(srv, "alice")

	stale := connect(srv, "bob")
	fresh := connect(srv, "bob") // replaces stale in the registry

	require.NoError(t, dispatch(t, srv, alice, PrivateMessage{}, map[string]any{
		"from": "alice", "to": "bob", "content": "to the new handle",
	}))

	recvView(t, fresh, chat.EventPrivateMessage)
	assertSilent(t, stale)
	recvView(t, alice, chat.EventPrivateMessage)
}
