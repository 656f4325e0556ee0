package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/bisttrading/algowire/pkg/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client is one downstream WebSocket consumer attached to the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string
	log  *zap.Logger

	subscriptions map[string]bool
	subsMu        sync.RWMutex
}

// SubscribeRequest is the only inbound message downstream clients send.
type SubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

func (c *Client) IsSubscribed(channel string) bool {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	return c.subscriptions[channel]
}

func (c *Client) subscribe(channels []string) {
	c.subsMu.Lock()
	for _, ch := range channels {
		c.subscriptions[ch] = true
	}
	c.subsMu.Unlock()
	c.log.Debug("subscribed", zap.String("client", c.id), zap.Strings("channels", channels))
}

func (c *Client) unsubscribe(channels []string) {
	c.subsMu.Lock()
	for _, ch := range channels {
		delete(c.subscriptions, ch)
	}
	c.subsMu.Unlock()
	c.log.Debug("unsubscribed", zap.String("client", c.id), zap.Strings("channels", channels))
}

// confirm answers a subscription change with the matching confirmation
// envelope.
func (c *Client) confirm(payload protocol.Payload) {
	frame, err := protocol.Encode(payload, time.Now())
	if err != nil {
		c.log.Warn("encode confirmation", zap.Error(err))
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

// readPump consumes subscription requests from the connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("read error", zap.String("client", c.id), zap.Error(err))
			}
			break
		}

		var req SubscribeRequest
		if err := json.Unmarshal(message, &req); err != nil {
			c.log.Warn("invalid request", zap.String("client", c.id), zap.Error(err))
			continue
		}

		switch req.Op {
		case "subscribe":
			if len(req.Channels) == 0 {
				continue
			}
			c.subscribe(req.Channels)
			c.confirm(&protocol.SubscriptionConfirmation{Channels: req.Channels})
		case "unsubscribe":
			if len(req.Channels) == 0 {
				continue
			}
			c.unsubscribe(req.Channels)
			c.confirm(&protocol.UnsubscriptionConfirmation{Channels: req.Channels})
		default:
			c.log.Warn("unknown op", zap.String("client", c.id), zap.String("op", req.Op))
		}
	}
}

// writePump pumps frames from the hub to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
