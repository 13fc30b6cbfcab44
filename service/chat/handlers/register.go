package handlers

import (
	"chatrelay/service/chat"
)

// RegisterAll wires every socket event handler onto the server's dispatcher.
func RegisterAll(s *chat.Server) {
	d := s.Disp()
	d.Register(PrivateMessage{})
	d.Register(GroupMessage{})
	d.Register(JoinGroup{})
	d.Register(LeaveGroup{})
	d.Register(FetchMessages{})
	d.Register(DeleteMessage{})
	d.Register(Typing{})
}
