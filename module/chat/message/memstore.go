package message

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	chatmodel "chatrelay/module/chat/model"
	"chatrelay/tools/errs"
)

// MemStore is a map-backed Store with the same ordering and not-found
// semantics as the Mongo implementation.
type MemStore struct {
	mu   sync.RWMutex
	byID map[string]*chatmodel.Message
	seq  []*chatmodel.Message // insertion order, doubles as createdAt order

	clock func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		byID:  make(map[string]*chatmodel.Message),
		clock: time.Now,
	}
}

func (s *MemStore) Create(_ context.Context, m *chatmodel.Message) (*chatmodel.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock().UTC()
	cp := *m
	if cp.ID.IsZero() {
		cp.ID = primitive.NewObjectID()
	}
	if cp.Status == "" {
		cp.Status = chatmodel.StatusActive
	}
	cp.CreatedAt = now
	cp.UpdatedAt = now

	s.byID[cp.ID.Hex()] = &cp
	s.seq = append(s.seq, &cp)

	out := cp
	return &out, nil
}

func (s *MemStore) FindByID(_ context.Context, id string) (*chatmodel.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, errs.ErrNotFound.WrapMsg("message not found", "id", id)
	}
	out := *m
	return &out, nil
}

func (s *MemStore) FindConversation(_ context.Context, userID, chatWithID string, isGroup bool) ([]*chatmodel.Message, error) {
	userID = strings.TrimSpace(userID)
	chatWithID = strings.TrimSpace(chatWithID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*chatmodel.Message
	for _, m := range s.seq {
		if isGroup {
			if m.IsGroup && m.To == chatWithID {
				cp := *m
				out = append(out, &cp)
			}
			continue
		}
		if m.IsGroup {
			continue
		}
		if (m.From == userID && m.To == chatWithID) || (m.From == chatWithID && m.To == userID) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) UpdateStatus(_ context.Context, id, status string) (*chatmodel.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, errs.ErrNotFound.WrapMsg("message not found", "id", id)
	}
	m.Status = status
	m.UpdatedAt = s.clock().UTC()
	out := *m
	return &out, nil
}

func (s *MemStore) FindUserChats(_ context.Context, userID string, groupIDs []string) ([]*chatmodel.Message, error) {
	groups := make(map[string]struct{}, len(groupIDs))
	for _, g := range groupIDs {
		groups[g] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*chatmodel.Message
	for _, m := range s.seq {
		if m.Status != chatmodel.StatusActive {
			continue
		}
		if m.IsGroup {
			if _, ok := groups[m.To]; ok {
				cp := *m
				out = append(out, &cp)
			}
			continue
		}
		if m.From == userID || m.To == userID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
