package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/module/chat/message"
	"chatrelay/tools/errs"
)

func TestSendErrorOnlyToOrigin(t *testing.T) {
	srv := NewServer(Options{Store: message.NewMemStore(), SendQueueSize: 4, FanoutWorkers: 1, FanoutQueue: 4})
	defer srv.Close()

	origin := NewClient("c1", "alice", nil, 4)
	other := NewClient("c2", "bob", nil, 4)
	srv.Reg().Register("alice", origin)
	srv.Reg().Register("bob", other)

	srv.SendError(origin, EventSendPrivateMessage, errs.ErrNotFound.WrapMsg("message not found"))

	select {
	case raw := <-origin.Send:
		f, err := ParseFrame(raw)
		require.NoError(t, err)
		assert.Equal(t, EventError, f.Event)

		var p ErrorPayload
		require.NoError(t, json.Unmarshal(f.Data, &p))
		assert.Equal(t, EventSendPrivateMessage, p.Event)
		assert.Equal(t, errs.CodeNotFound, p.Code)
		assert.Contains(t, p.Message, "not found")
	case <-time.After(time.Second):
		t.Fatal("no error frame delivered")
	}

	select {
	case raw := <-other.Send:
		t.Fatalf("error frame leaked to another connection: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendErrorUnknownErrorIsInternal(t *testing.T) {
	srv := NewServer(Options{Store: message.NewMemStore()})
	defer srv.Close()

	origin := NewClient("c1", "alice", nil, 4)
	srv.SendError(origin, EventTyping, opaqueErr())

	raw := <-origin.Send
	f, err := ParseFrame(raw)
	require.NoError(t, err)

	var p ErrorPayload
	require.NoError(t, json.Unmarshal(f.Data, &p))
	assert.Equal(t, errs.CodeInternal, p.Code)
	assert.Equal(t, "internal error", p.Message)
}

func opaqueErr() error { return errs.New("driver: connection reset") }

func TestServerOptionDefaults(t *testing.T) {
	srv := NewServer(Options{Store: message.NewMemStore()})
	defer srv.Close()
	assert.Equal(t, "relay-1", srv.NodeID())
	assert.Nil(t, srv.Presence())
}
