package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"idportal/internal/middleware"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per audience
	maxConnsPerAudience = 12
	// Max total connections
	maxTotalConns = 5000

	// AdminAudience receives every status change.
	AdminAudience = "admins"
)

var (
	ErrServerFull   = errors.New("server connection limit reached")
	ErrAudienceFull = errors.New("audience connection limit reached")
)

// OfficerAudience is the hub key for one officer's feeds.
func OfficerAudience(officerID uint) string {
	return "officer:" + strconv.FormatUint(uint64(officerID), 10)
}

// Hub maps audience keys to connected status feeds.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]map[*Client]struct{}
	totalConns int
	closed     bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*Client]struct{})}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "status hub" }

// Register a connection for audience. Returns an error when limits are exceeded.
func (h *Hub) Register(audience string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}
	m, ok := h.conns[audience]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[audience] = m
	}
	if len(m) >= maxConnsPerAudience {
		return nil, ErrAudienceFull
	}

	client := newClient(h, conn, audience)
	m[client] = struct{}{}
	h.totalConns++
	middleware.ActiveWebSockets.Inc()
	return client, nil
}

// UnregisterClient removes client. Calling it twice is harmless.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.conns[client.audience]
	if !ok {
		return
	}
	if _, exists := m[client]; exists {
		delete(m, client)
		h.totalConns--
		middleware.ActiveWebSockets.Dec()
	}
	if len(m) == 0 {
		delete(h.conns, client.audience)
	}
}

// Broadcast sends message to every feed registered under audience.
func (h *Hub) Broadcast(audience string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[audience] {
		c.enqueue(message)
	}
}

// Connections returns the number of feeds for audience.
func (h *Hub) Connections(audience string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[audience])
}

// Dispatch routes one Redis message to the matching audience.
func (h *Hub) Dispatch(channel, payload string) {
	if channel == EventsChannel {
		h.Broadcast(AdminAudience, []byte(payload))
		return
	}
	officerID, ok := parseOfficerChannel(channel)
	if !ok {
		middleware.Logger.Warn("invalid status channel", slog.String("channel", channel))
		return
	}
	h.Broadcast(OfficerAudience(officerID), []byte(payload))
}

// StartWiring subscribes the hub to the notifier's channels.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, h.Dispatch)
}

// Shutdown closes every feed with a going-away frame.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true

	for _, clients := range h.conns {
		for client := range clients {
			client.close(websocket.CloseGoingAway, "Server shutting down")
			middleware.ActiveWebSockets.Dec()
		}
	}
	h.conns = make(map[string]map[*Client]struct{})
	h.totalConns = 0
	return nil
}

// welcome is the first frame sent on a new feed.
func welcome(audience string) []byte {
	b, _ := json.Marshal(map[string]string{"type": "connected", "audience": audience})
	return b
}
