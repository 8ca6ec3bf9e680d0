package hub

import (
	"sync"

	"github.com/kaifazhe99/Baedalfriend-BE/internal/log"
)

// Hub is the process-local connection registry. Room membership and
// broker subscriptions live in the fanout manager; the hub only tracks
// which connections exist and tears them down on disconnect.
type Hub struct {
	clients      map[string]*Client
	mu           sync.RWMutex
	onDisconnect func(*Client)
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// OnDisconnect sets the callback invoked when a connection goes away,
// before the client is removed. The composition root wires this to the
// chat service's disconnect handling.
func (h *Hub) OnDisconnect(fn func(*Client)) {
	h.onDisconnect = fn
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	l := log.L()
	l.Debug().Str(log.FieldConnectionID, client.ID).Msg("client registered")
}

// Unregister removes the client, running the disconnect callback first
// so every joined room sees an implicit leave. Unregistering an unknown
// client is a no-op.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, known := h.clients[client.ID]
	if known {
		delete(h.clients, client.ID)
	}
	h.mu.Unlock()

	if !known {
		return
	}

	if h.onDisconnect != nil {
		h.onDisconnect(client)
	}
	client.closeSend()

	l := log.L()
	l.Debug().Str(log.FieldConnectionID, client.ID).Msg("client unregistered")
}

func (h *Hub) Get(id string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	return c, ok
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
