package chat

import (
	"chatrelay/logger"
)

type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register wires a handler by its event name. Later registrations for the
// same event replace earlier ones.
func (d *Dispatcher) Register(h Handler) {
	d.handlers[h.Event()] = h
}

func (d *Dispatcher) GetHandler(event string) Handler {
	h, ok := d.handlers[event]
	if !ok {
		logger.Debugf("no handler for event=%s", event)
		return nil
	}
	return h
}
