package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/xelth-com/pharmsearch/internal/logger"
	"github.com/xelth-com/pharmsearch/internal/search"
	"github.com/xelth-com/pharmsearch/internal/utils"
)

// ChatResolver answers conversational queries
type ChatResolver interface {
	ResolveConversational(ctx context.Context, req search.Request) (*search.SearchResultPage, error)
}

// Hub tracks the connected chat clients
type Hub struct {
	resolver ChatResolver
	dedup    *utils.Deduplicator

	// Registered clients map: ClientID -> Client
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a hub answering chat queries with resolver. Messages whose
// msgId was already seen by dedup are dropped.
func NewHub(resolver ChatResolver, dedup *utils.Deduplicator) *Hub {
	return &Hub{
		resolver:   resolver,
		dedup:      dedup,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string]*Client),
	}
}

// Run processes registrations until ctx is done, then disconnects everyone
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			logger.Debug(ctx, "💬 Chat client connected", "client_id", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
				logger.Debug(ctx, "📴 Chat client disconnected", "client_id", client.ID)
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.send)
			}
			h.mu.Unlock()
			close(h.done)
			return
		}
	}
}

func (h *Hub) attach(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendToClient queues a message for one client. It reports false when the
// client is gone or its buffer is full.
func (h *Hub) SendToClient(clientID string, message interface{}) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[clientID]
	if !ok {
		return false
	}

	jsonMsg, err := json.Marshal(message)
	if err != nil {
		logger.Warn(context.Background(), "⚠️ failed to marshal chat message", "error", err)
		return false
	}

	select {
	case client.send <- jsonMsg:
		return true
	default:
		return false
	}
}
