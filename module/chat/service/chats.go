package service

import (
	"context"

	"chatrelay/module/chat/message"
	chatmodel "chatrelay/module/chat/model"
	"chatrelay/module/group"
	groupmodel "chatrelay/module/group/model"
	"chatrelay/module/user"
	usermodel "chatrelay/module/user/model"
)

// ChatEntry is one row of the chat-list view.
type ChatEntry struct {
	From      string `json:"from"`
	Message   string `json:"message"`
	CreatedAt any    `json:"createdAt"`
	IsGroup   bool   `json:"isGroup"`
	ChatID    string `json:"chatId"`
	Avatar    string `json:"avatar"`
}

// Chats groups a user's ACTIVE messages by counterpart (user name or group
// name), newest first, and lists roster groups with no traffic yet.
type Chats struct {
	messages message.Store
	groups   *group.Store
	users    *user.Store
}

func NewChats(messages message.Store, groups *group.Store, users *user.Store) *Chats {
	return &Chats{messages: messages, groups: groups, users: users}
}

func (s *Chats) ForUser(ctx context.Context, userID string) (map[string][]ChatEntry, error) {
	me, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	userGroups, err := s.groups.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	groupIDs := make([]string, 0, len(userGroups))
	groupByID := make(map[string]*groupmodel.Group, len(userGroups))
	for _, g := range userGroups {
		id := g.ID.Hex()
		groupIDs = append(groupIDs, id)
		groupByID[id] = g
	}

	msgs, err := s.messages.FindUserChats(ctx, userID, groupIDs)
	if err != nil {
		return nil, err
	}

	// resolve every counterpart profile in one batch
	idSet := make(map[string]struct{})
	for _, m := range msgs {
		idSet[m.From] = struct{}{}
		if !m.IsGroup {
			idSet[m.To] = struct{}{}
		}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	counterparts, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	userByID := make(map[string]*usermodel.User, len(counterparts))
	for _, u := range counterparts {
		userByID[u.ID.Hex()] = u
	}
	userByID[me.ID.Hex()] = me

	out := make(map[string][]ChatEntry)
	for _, m := range msgs {
		key, chatID, avatar := s.chatKey(m, userID, groupByID, userByID)
		if key == "" {
			continue
		}
		fromName := ""
		if u := userByID[m.From]; u != nil {
			fromName = u.UserName
		}
		out[key] = append(out[key], ChatEntry{
			From:      fromName,
			Message:   m.Content,
			CreatedAt: m.CreatedAt,
			IsGroup:   m.IsGroup,
			ChatID:    chatID,
			Avatar:    avatar,
		})
	}

	// roster groups without any message yet still show up
	for _, g := range userGroups {
		if _, ok := out[g.Name]; !ok {
			out[g.Name] = []ChatEntry{{
				From:    g.Name,
				IsGroup: true,
				ChatID:  g.ID.Hex(),
				Avatar:  g.Avatar,
			}}
		}
	}

	return out, nil
}

func (s *Chats) chatKey(m *chatmodel.Message, userID string, groups map[string]*groupmodel.Group, users map[string]*usermodel.User) (key, chatID, avatar string) {
	if m.IsGroup {
		g := groups[m.To]
		if g == nil {
			return "", "", ""
		}
		return g.Name, g.ID.Hex(), g.Avatar
	}

	otherID := m.To
	if m.To == userID {
		otherID = m.From
	}
	u := users[otherID]
	if u == nil {
		return "", "", ""
	}
	return u.UserName, otherID, u.Avatar
}
