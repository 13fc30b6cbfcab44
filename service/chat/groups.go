package chat

import (
	"sync"
)

// Membership is the live group broadcast table: groupId -> set of userIds
// that explicitly joined on this process. It is built only by join events,
// never derived from the durable roster, and is lost on restart.
type Membership struct {
	mu      sync.RWMutex
	byGroup map[string]map[string]struct{}
}

func NewMembership() *Membership {
	return &Membership{byGroup: make(map[string]map[string]struct{})}
}

// Join adds userID to the group's live set, creating the set if absent.
// Idempotent.
func (m *Membership) Join(groupID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.byGroup[groupID]
	if set == nil {
		set = make(map[string]struct{})
		m.byGroup[groupID] = set
	}
	set[userID] = struct{}{}
}

// Leave removes userID from the group's live set. Unknown groups or members
// are a no-op.
func (m *Membership) Leave(groupID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set := m.byGroup[groupID]; set != nil {
		delete(set, userID)
		if len(set) == 0 {
			delete(m.byGroup, groupID)
		}
	}
}

// Members returns the current live membership, empty if nobody joined in
// this process lifetime.
func (m *Membership) Members(groupID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.byGroup[groupID]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for u := range set {
		out = append(out, u)
	}
	return out
}

// IsMember reports whether userID currently belongs to the live set.
func (m *Membership) IsMember(groupID, userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byGroup[groupID][userID]
	return ok
}
