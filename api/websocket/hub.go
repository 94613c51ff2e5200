package websocket

import (
	"sync"
	"time"

	"github.com/openfleet/autoscaler/internal/logger"
	"github.com/openfleet/autoscaler/pkg/config"
)

const defaultBroadcastBuffer = 256

// settings are the per-connection limits derived from configuration.
type settings struct {
	writeWait       time.Duration
	pongWait        time.Duration
	pingPeriod      time.Duration
	maxMessageSize  int64
	readBufferSize  int
	writeBufferSize int
	clientBuffer    int
	maxConnections  int
}

func newSettings(cfg config.WebSocketConfig) settings {
	s := settings{
		writeWait:       cfg.WriteTimeout,
		pongWait:        cfg.PongTimeout,
		maxMessageSize:  cfg.MaxMessageSize,
		readBufferSize:  cfg.ReadBufferSize,
		writeBufferSize: cfg.WriteBufferSize,
		clientBuffer:    cfg.ClientBuffer,
		maxConnections:  cfg.MaxConnections,
	}
	if s.writeWait == 0 {
		s.writeWait = 10 * time.Second
	}
	if s.pongWait == 0 {
		s.pongWait = 60 * time.Second
	}
	s.pingPeriod = (s.pongWait * 9) / 10
	if s.maxMessageSize == 0 {
		s.maxMessageSize = 4096
	}
	if s.readBufferSize == 0 {
		s.readBufferSize = 1024
	}
	if s.writeBufferSize == 0 {
		s.writeBufferSize = 1024
	}
	if s.clientBuffer == 0 {
		s.clientBuffer = 64
	}
	if s.maxConnections == 0 {
		s.maxConnections = 1000
	}
	return s
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	settings   settings
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, defaultBroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		settings:   newSettings(cfg),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Infof("WebSocket client connected (total: %d)", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			logger.Infof("WebSocket client disconnected (total: %d)", h.ClientCount())

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a message to every connected client.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		logger.Warn("Broadcast channel full, dropping message")
	}
}

// BroadcastToTarget sends a message only to clients subscribed to one
// target. Clients with no subscription receive everything.
func (h *Hub) BroadcastToTarget(targetID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.targetID == "" || client.targetID == targetID {
			select {
			case client.send <- message:
			default:
			}
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}
