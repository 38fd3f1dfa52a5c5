package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"idportal/internal/models"
	"idportal/internal/notifications"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen serves ts on a loopback port with the status hub wired to Redis.
func (ts *testServer) listen(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, ts.hub.StartWiring(ctx, ts.notifier))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = ts.app.Listener(ln) }()
	t.Cleanup(func() {
		cancel()
		_ = ts.app.Shutdown()
	})
	return ln.Addr().String()
}

func dialFeed(t *testing.T, addr, ticket string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/ws/applications?ticket="+ticket, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello map[string]string
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, "connected", hello["type"])
	return conn
}

func TestStatusFeed_DeliversOwnEvents(t *testing.T) {
	ts := newTestServer(t)
	addr := ts.listen(t)

	officer, token := ts.approvedOfficer(t, "otieno@police.go.ke")
	ticket, err := ts.issueWSTicket(context.Background(), officer.ID, models.RoleOfficer)
	require.NoError(t, err)
	officerFeed := dialFeed(t, addr, ticket)

	adminTicket, err := ts.issueWSTicket(context.Background(), 1, models.RoleAdmin)
	require.NoError(t, err)
	adminFeed := dialFeed(t, addr, adminTicket)

	require.Eventually(t, func() bool {
		return ts.hub.Connections(notifications.OfficerAudience(officer.ID)) == 1 &&
			ts.hub.Connections(notifications.AdminAudience) == 1
	}, 2*time.Second, 20*time.Millisecond)

	resp, body := ts.do(t, multipartRequest(t, "/api/applications", token, applicationFields(), nil))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	for name, conn := range map[string]*websocket.Conn{"officer": officerFeed, "admin": adminFeed} {
		var ev notifications.StatusEvent
		require.NoError(t, conn.ReadJSON(&ev), name)
		assert.Equal(t, notifications.EventStatusChanged, ev.Type, name)
		assert.Equal(t, "application", ev.Workflow, name)
		assert.Equal(t, "APP2026000001", ev.Number, name)
		assert.Equal(t, string(models.ApplicationStatusSubmitted), ev.Status, name)
		assert.Equal(t, officer.ID, ev.OfficerID, name)
	}
}

func TestStatusFeed_RejectsSpentTicket(t *testing.T) {
	ts := newTestServer(t)
	addr := ts.listen(t)

	ticket, err := ts.issueWSTicket(context.Background(), 3, models.RoleOfficer)
	require.NoError(t, err)
	dialFeed(t, addr, ticket)

	_, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/ws/applications?ticket="+ticket, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
