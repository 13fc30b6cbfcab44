package chat

import (
	"chatrelay/logger"
	"chatrelay/module/chat/message"
	"chatrelay/service/storage"
	"chatrelay/tools/errs"
)

type Options struct {
	NodeID string

	Store    message.Store
	Profiles ProfileResolver

	// Presence nil disables liveness tracking entirely.
	Presence *storage.Presence

	SendQueueSize int
	FanoutWorkers int
	FanoutQueue   int
}

func (o *Options) norm() {
	if o.NodeID == "" {
		o.NodeID = "relay-1"
	}
	if o.SendQueueSize <= 0 {
		o.SendQueueSize = 256
	}
	if o.FanoutWorkers <= 0 {
		o.FanoutWorkers = 8
	}
	if o.FanoutQueue <= 0 {
		o.FanoutQueue = 1024
	}
}

// Server owns the process-wide relay state: the connection registry, the live
// group membership table, the fan-out engine and the event dispatcher. It is
// shared by every connection goroutine; no connection owns it.
type Server struct {
	nodeID string

	reg    *Registry
	groups *Membership
	fan    *Fanout
	disp   *Dispatcher

	store    message.Store
	profiles ProfileResolver
	presence *storage.Presence

	sendQueue int
}

func NewServer(opts Options) *Server {
	opts.norm()
	reg := NewRegistry()
	return &Server{
		nodeID:    opts.NodeID,
		reg:       reg,
		groups:    NewMembership(),
		fan:       NewFanout(reg, opts.FanoutWorkers, opts.FanoutQueue),
		disp:      NewDispatcher(),
		store:     opts.Store,
		profiles:  opts.Profiles,
		presence:  opts.Presence,
		sendQueue: opts.SendQueueSize,
	}
}

func (s *Server) NodeID() string             { return s.nodeID }
func (s *Server) Reg() *Registry             { return s.reg }
func (s *Server) Groups() *Membership        { return s.groups }
func (s *Server) Fan() *Fanout               { return s.fan }
func (s *Server) Disp() *Dispatcher          { return s.disp }
func (s *Server) Store() message.Store       { return s.store }
func (s *Server) Profiles() ProfileResolver  { return s.profiles }
func (s *Server) Presence() *storage.Presence { return s.presence }

// SendError reports a failed event back to the originating connection only.
// Errors never terminate the connection or the process.
func (s *Server) SendError(c *Client, event string, err error) {
	payload, encErr := EncodeFrame(EventError, &ErrorPayload{
		Event:   event,
		Code:    errs.Code(err),
		Message: errs.Message(err),
	})
	if encErr != nil {
		logger.Errorf("[chat] encode error frame failed: %v", encErr)
		return
	}
	if !c.Push(payload) {
		logger.Debugf("[chat] error frame dropped user=%s conn=%s", c.UserID, c.ConnID)
	}
}

func errNoHandler(event string) error {
	return errs.ErrValidation.WithDetail("unknown event " + event)
}

// Close releases the fan-out workers.
func (s *Server) Close() {
	s.fan.Close()
}
