package ws

import (
	"sync"

	"go.uber.org/zap"
)

// Hub maintains active WebSocket connections and fans envelopes out to
// the clients subscribed to their channel.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg

	mu  sync.RWMutex
	log *zap.Logger
}

type broadcastMsg struct {
	channel string
	frame   []byte
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, 256),
		log:        log,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client connected", zap.String("client", client.id), zap.Int("total", total))

		case client := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, client)
			total := len(h.clients)
			h.mu.Unlock()
			// Single close point: readPump has stopped by the time it
			// unregisters, so nothing can write to send anymore.
			close(client.send)
			h.log.Info("client disconnected", zap.String("client", client.id), zap.Int("total", total))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.IsSubscribed(msg.channel) {
					continue
				}
				select {
				case client.send <- msg.frame:
				default:
					// Send buffer full: the client is too slow. Remove it
					// from the fan-out and close its connection; its
					// readPump still owns send until it unregisters.
					delete(h.clients, client)
					if client.conn != nil {
						client.conn.Close()
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToChannel queues one encoded frame for every client
// subscribed to the channel.
func (h *Hub) BroadcastToChannel(channel string, frame []byte) {
	h.broadcast <- broadcastMsg{channel: channel, frame: frame}
}
