package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/terra-energy/inspecciones/internal/models"
)

// Hub maintains the set of active clients and broadcasts change messages
type Hub struct {
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	mu  sync.RWMutex
	log *zap.Logger
}

// NewHub creates a new Hub instance
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		clients:    make(map[string]*Client),
		log:        log.Named("ws"),
	}
}

// Run starts the hub's main loop. It returns when ctx is done, closing
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.ID]; ok {
				close(old.send)
			}
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.log.Debug("client connected", zap.String("client", client.ID))

		case client := <-h.unregister:
			h.mu.Lock()
			if c, ok := h.clients[client.ID]; ok && c == client {
				delete(h.clients, client.ID)
				close(client.send)
				h.log.Debug("client disconnected", zap.String("client", client.ID))
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// slow client; it will catch up on the next change
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues a change for every connected client. It never blocks the
// caller; changes are dropped when the queue is full.
func (h *Hub) Broadcast(changes ...models.Change) {
	for _, ch := range changes {
		if ch.ID == "" {
			continue
		}
		msg, err := json.Marshal(message{Type: "CHANGE", Change: ch})
		if err != nil {
			h.log.Warn("marshal change failed", zap.Error(err))
			continue
		}
		select {
		case h.broadcast <- msg:
		default:
			h.log.Warn("broadcast queue full, dropping change", zap.String("entity", ch.Entity), zap.String("id", ch.ID))
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type message struct {
	Type string `json:"type"`
	models.Change
}
