package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/bisttrading/algowire/pkg/broker"
	"github.com/bisttrading/algowire/pkg/protocol"
)

// Handler receives every decoded business envelope from the feed, in
// arrival order. Keep-alives never reach it.
type Handler interface {
	Handle(env *protocol.Envelope)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(env *protocol.Envelope)

func (f HandlerFunc) Handle(env *protocol.Envelope) { f(env) }

// FeedClient maintains one persistent connection to the upstream
// broker feed. Frames are decoded and dispatched sequentially; the
// only mutable state is the connection handle and the last-heartbeat
// timestamp, both owned here.
type FeedClient struct {
	url              string
	heartbeatTimeout time.Duration
	reconnectDelay   time.Duration
	maxReconnects    int

	handler Handler
	log     *zap.Logger

	mu            sync.Mutex
	conn          *websocket.Conn
	lastHeartbeat time.Time
	subscriptions map[string]bool
	closed        bool
}

func NewFeedClient(url string, heartbeatTimeout, reconnectDelay time.Duration,
	maxReconnects int, handler Handler, log *zap.Logger) *FeedClient {
	return &FeedClient{
		url:              url,
		heartbeatTimeout: heartbeatTimeout,
		reconnectDelay:   reconnectDelay,
		maxReconnects:    maxReconnects,
		handler:          handler,
		log:              log,
		subscriptions:    make(map[string]bool),
	}
}

// Connect dials the feed and starts the read loop. The loop reconnects
// on failure up to the configured attempt budget.
func (c *FeedClient) Connect() error {
	conn, resp, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		if resp != nil {
			if resp.StatusCode == 401 || resp.StatusCode == 403 {
				return broker.NewAuthenticationError("feed handshake rejected: " + err.Error())
			}
			return broker.NewAPIError(resp.StatusCode, "FEED_CONNECT", err.Error())
		}
		return broker.NewAPIError(0, "FEED_CONNECT", err.Error())
	}

	c.mu.Lock()
	c.conn = conn
	c.lastHeartbeat = time.Now()
	c.mu.Unlock()

	c.log.Info("feed connected", zap.String("url", c.url))
	c.resubscribe()

	go c.readLoop(conn)
	return nil
}

// Close shuts the connection down and disables reconnection.
func (c *FeedClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// LastHeartbeat reports when the feed last confirmed liveness.
func (c *FeedClient) LastHeartbeat() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastHeartbeat
}

// Subscribe asks the feed for the given channels and remembers them for
// resubscription after a reconnect.
func (c *FeedClient) Subscribe(channels ...string) error {
	c.mu.Lock()
	for _, ch := range channels {
		c.subscriptions[ch] = true
	}
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return errors.New("ws: feed not connected")
	}
	return c.sendRequest(conn, "subscribe", channels)
}

// Unsubscribe removes channels from the feed and the resubscribe set.
func (c *FeedClient) Unsubscribe(channels ...string) error {
	c.mu.Lock()
	for _, ch := range channels {
		delete(c.subscriptions, ch)
	}
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return errors.New("ws: feed not connected")
	}
	return c.sendRequest(conn, "unsubscribe", channels)
}

func (c *FeedClient) sendRequest(conn *websocket.Conn, op string, channels []string) error {
	req, err := json.Marshal(SubscribeRequest{Op: op, Channels: channels})
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, req)
}

func (c *FeedClient) resubscribe() {
	c.mu.Lock()
	channels := make([]string, 0, len(c.subscriptions))
	for ch := range c.subscriptions {
		channels = append(channels, ch)
	}
	conn := c.conn
	c.mu.Unlock()

	if conn == nil || len(channels) == 0 {
		return
	}
	if err := c.sendRequest(conn, "subscribe", channels); err != nil {
		c.log.Warn("resubscribe failed", zap.Error(err))
	}
}

// readLoop decodes and dispatches frames in arrival order. Decode
// failures drop the single frame and keep the connection open; a
// missing heartbeat past the timeout closes it via the read deadline.
func (c *FeedClient) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(c.heartbeatTimeout))

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			c.log.Warn("feed read error", zap.Error(err))
			c.scheduleReconnect()
			return
		}

		env, disp, err := c.decodeFrame(frame)
		if err != nil {
			continue
		}

		// Any well-formed frame proves the peer is alive.
		conn.SetReadDeadline(time.Now().Add(c.heartbeatTimeout))

		if disp == protocol.KeepAlive {
			c.mu.Lock()
			c.lastHeartbeat = time.Now()
			c.mu.Unlock()
			continue
		}

		c.handler.Handle(env)
	}
}

func (c *FeedClient) decodeFrame(frame []byte) (*protocol.Envelope, protocol.Disposition, error) {
	env, disp, err := protocol.Decode(frame)
	if err == nil {
		return env, disp, nil
	}

	var unknown *protocol.UnknownTypeError
	var malformed *protocol.MalformedPayloadError
	switch {
	case errors.As(err, &unknown):
		c.log.Warn("unknown message type", zap.String("tag", unknown.Tag))
	case errors.As(err, &malformed):
		c.log.Warn("malformed payload",
			zap.String("tag", string(malformed.Tag)), zap.String("detail", malformed.Detail))
	default:
		c.log.Warn("decode failed", zap.Error(err))
	}
	return nil, protocol.Deliver, err
}

func (c *FeedClient) scheduleReconnect() {
	for attempt := 1; attempt <= c.maxReconnects; attempt++ {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}

		time.Sleep(c.reconnectDelay)
		if err := c.Connect(); err != nil {
			var berr *broker.Error
			if errors.As(err, &berr) && berr.Fatal() {
				c.log.Error("feed rejected the session, not retrying", zap.Error(err))
				return
			}
			c.log.Warn("reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		return
	}
	c.log.Error("feed reconnect budget exhausted", zap.Int("attempts", c.maxReconnects))
}
