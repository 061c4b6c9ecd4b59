package registry

import (
	"sync"

	"courier/internal/core/contracts"
)

// Registry is the per-node connection hub. Each registered client owns a set
// of live snapshot streams keyed by stream name; unregistering a client
// cancels all of them so no goroutine outlives its connection.
type Registry struct {
	mu      sync.Mutex
	clients map[contracts.Client]map[string]func()
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[contracts.Client]map[string]func()),
	}
}

func (h *Registry) Register(c contracts.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] == nil {
		h.clients[c] = make(map[string]func())
	}
}

func (h *Registry) Unregister(c contracts.Client) {
	h.mu.Lock()
	cancels := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// AddSubscription replaces any stream the client already holds under key.
func (h *Registry) AddSubscription(c contracts.Client, key string, cancel func()) {
	h.mu.Lock()
	subs := h.clients[c]
	if subs == nil {
		// Client already unregistered; cancel the orphan stream right away.
		h.mu.Unlock()
		cancel()
		return
	}
	prev := subs[key]
	subs[key] = cancel
	h.mu.Unlock()
	if prev != nil {
		prev()
	}
}

func (h *Registry) DropSubscription(c contracts.Client, key string) {
	h.mu.Lock()
	subs := h.clients[c]
	var cancel func()
	if subs != nil {
		cancel = subs[key]
		delete(subs, key)
	}
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
