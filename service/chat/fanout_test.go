package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvPayload(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case p := <-c.Send:
		return p
	case <-time.After(2 * time.Second):
		t.Fatalf("no payload delivered to conn %s", c.ConnID)
		return nil
	}
}

func assertNoPayload(t *testing.T, c *Client) {
	t.Helper()
	select {
	case p := <-c.Send:
		t.Fatalf("unexpected payload on conn %s: %s", c.ConnID, p)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFanoutResolveSkipsAbsent(t *testing.T) {
	reg := NewRegistry()
	f := NewFanout(reg, 1, 8)
	defer f.Close()

	alice := NewClient("c1", "alice", nil, 4)
	reg.Register("alice", alice)

	conns := f.Resolve("alice", "ghost")
	require.Len(t, conns, 1)
	assert.Equal(t, "c1", conns[0].ConnID)
}

func TestFanoutResolveDedupByConn(t *testing.T) {
	reg := NewRegistry()
	f := NewFanout(reg, 1, 8)
	defer f.Close()

	// one handle backing two logical identities
	shared := NewClient("c1", "alice", nil, 4)
	reg.Register("alice", shared)
	reg.Register("bob", shared)

	conns := f.Resolve("alice", "bob")
	assert.Len(t, conns, 1)
}

func TestFanoutBroadcastDeliversOncePerConn(t *testing.T) {
	reg := NewRegistry()
	f := NewFanout(reg, 2, 8)
	defer f.Close()

	alice := NewClient("c1", "alice", nil, 4)
	bob := NewClient("c2", "bob", nil, 4)
	reg.Register("alice", alice)
	reg.Register("bob", bob)

	payload := []byte(`{"event":"x"}`)
	f.Broadcast(f.Resolve("alice", "bob", "ghost"), payload)

	assert.Equal(t, payload, recvPayload(t, alice))
	assert.Equal(t, payload, recvPayload(t, bob))
	assertNoPayload(t, alice)
	assertNoPayload(t, bob)
}

func TestFanoutClosedClientDropsSilently(t *testing.T) {
	reg := NewRegistry()
	f := NewFanout(reg, 1, 8)
	defer f.Close()

	alice := NewClient("c1", "alice", nil, 4)
	reg.Register("alice", alice)
	conns := f.Resolve("alice")

	alice.Close()
	// no panic on send to a closed handle
	f.Broadcast(conns, []byte("late"))
	time.Sleep(20 * time.Millisecond)
}

func TestClientPushAfterCloseReturnsFalse(t *testing.T) {
	c := NewClient("c1", "alice", nil, 1)
	require.True(t, c.Push([]byte("a")))
	// buffer full
	assert.False(t, c.Push([]byte("b")))

	c.Close()
	c.Close() // idempotent
	assert.False(t, c.Push([]byte("c")))
}
