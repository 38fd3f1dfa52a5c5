package notifications

import (
	"log/slog"
	"sync"
	"time"

	"idportal/internal/middleware"
	"idportal/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
	// keepalive must fire before idleTimeout lapses on the peer's side.
	keepalive = idleTimeout * 9 / 10

	// Feeds are push-only; inbound frames are pongs and closes.
	maxInboundFrame = 1024
	sendBuffer      = 64
)

var dropNotice = []byte(`{"type":"messages_dropped","payload":{"reason":"buffer_full"}}`)

// Client is one status-feed connection registered with a Hub.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	audience string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, audience string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		audience: audience,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
}

// Audience is the hub key the client listens on.
func (c *Client) Audience() string { return c.audience }

// Serve sends the welcome frame and blocks until the peer disconnects or the
// hub shuts the feed down.
func (c *Client) Serve() {
	c.enqueue(welcome(c.audience))
	go c.writeLoop()
	c.readLoop()
}

// enqueue never blocks. When the buffer is full the message is dropped and a
// single drop notice takes its place so the UI knows to refetch.
func (c *Client) enqueue(message []byte) bool {
	select {
	case <-c.done:
		observability.WebSocketDrops.WithLabelValues("closed").Inc()
		return false
	default:
	}

	select {
	case c.send <- message:
		return true
	default:
	}
	observability.WebSocketDrops.WithLabelValues("full").Inc()
	select {
	case c.send <- dropNotice:
	default:
	}
	return false
}

// close stops the write loop and, when code is non-zero, sends a close frame.
func (c *Client) close(code int, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn == nil {
			return
		}
		if code != 0 {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(code, reason), time.Now().Add(writeTimeout))
		}
		_ = c.conn.Close()
	})
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.close(0, "")
	}()

	c.conn.SetReadLimit(maxInboundFrame)
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(idleTimeout)) }
	_ = extend("")
	c.conn.SetPongHandler(extend)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				middleware.Logger.Debug("status feed dropped",
					slog.String("audience", c.audience), slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (c *Client) writeLoop() {
	ping := time.NewTicker(keepalive)
	defer ping.Stop()

	for {
		var (
			kind    int
			payload []byte
		)
		select {
		case <-c.done:
			return
		case payload = <-c.send:
			kind = websocket.TextMessage
		case <-ping.C:
			kind = websocket.PingMessage
		}

		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(kind, payload); err != nil {
			c.close(0, "")
			return
		}
	}
}
