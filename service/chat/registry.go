package chat

import (
	"sync"
)

// Registry maps a user identity to its currently tracked connection.
// At most one handle per identity: a reconnect replaces the previous entry
// (last-connect-wins). Lookup means "last known", never "guaranteed
// reachable" — callers resolve at dispatch time and tolerate stale handles.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]*Client)}
}

// Register unconditionally associates userID with c, discarding any prior
// association. No error conditions.
func (r *Registry) Register(userID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[userID] = c
}

// Lookup returns the last registered handle for userID.
func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

// DeregisterConn removes the entry for userID only when it still points at
// connID. A reconnect that already replaced the entry is left untouched, so
// a slow close of the old connection can never evict the new one.
func (r *Registry) DeregisterConn(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byUser[userID]
	if !ok || c.ConnID != connID {
		return false
	}
	delete(r.byUser, userID)
	return true
}

// Len reports tracked identities (debug/metrics use).
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
