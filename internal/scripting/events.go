package scripting

import "sync"

// EventHandler is the ordered set of handles that receive engine callins.
// All methods are safe for concurrent use.
type EventHandler struct {
	mu      sync.RWMutex
	clients []*Handle
}

// NewEventHandler creates an EventHandler with no clients.
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// AddClient registers h; registering twice is a no-op.
func (e *EventHandler) AddClient(h *Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.clients {
		if c == h {
			return
		}
	}
	e.clients = append(e.clients, h)
}

// RemoveClient unregisters h.
func (e *EventHandler) RemoveClient(h *Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, c := range e.clients {
		if c == h {
			e.clients = append(e.clients[:i], e.clients[i+1:]...)
			return
		}
	}
}

// HasClient reports whether h receives callins.
func (e *EventHandler) HasClient(h *Handle) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, c := range e.clients {
		if c == h {
			return true
		}
	}
	return false
}

// Clients returns the registered handles in registration order.
func (e *EventHandler) Clients() []*Handle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*Handle(nil), e.clients...)
}
