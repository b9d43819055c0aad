package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pattern-atlas-service/internal/models"
	"pattern-atlas-service/pkg/logging"
)

func startHub(t *testing.T, count int) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(logging.NewStructuredLogger("live-test"), func() int { return count })
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.ServeWS(w, r); err != nil {
			t.Logf("upgrade failed: %v", err)
		}
	}))

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) models.LiveMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg models.LiveMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n },
		2*time.Second, 10*time.Millisecond)
}

func TestHub_HelloOnConnect(t *testing.T) {
	_, srv := startHub(t, 9)
	conn := dial(t, srv)

	msg := readMessage(t, conn)
	assert.Equal(t, EventHello, msg.Event)
	assert.Equal(t, 9, msg.Patterns)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub, srv := startHub(t, 3)
	first := dial(t, srv)
	second := dial(t, srv)
	readMessage(t, first)
	readMessage(t, second)
	waitForClients(t, hub, 2)

	err := hub.Broadcast(models.LiveMessage{
		Event:    EventCatalogReloaded,
		Patterns: 4,
		Paths:    []string{"catalog/observer.yaml"},
	})
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		assert.Equal(t, EventCatalogReloaded, msg.Event)
		assert.Equal(t, 4, msg.Patterns)
		assert.Equal(t, []string{"catalog/observer.yaml"}, msg.Paths)
		assert.False(t, msg.Timestamp.IsZero())
	}
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub, srv := startHub(t, 0)
	conn := dial(t, srv)
	readMessage(t, conn)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)
}

func TestHub_ServeWSRejectsPlainHTTP(t *testing.T) {
	hub := NewHub(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/live", nil)
	rec := httptest.NewRecorder()

	err := hub.ServeWS(rec, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upgrade")
}

func TestHub_BroadcastWithoutRunnerFillsQueue(t *testing.T) {
	hub := NewHub(nil, nil)

	var err error
	for i := 0; i < cap(hub.broadcast)+1; i++ {
		err = hub.Broadcast(models.LiveMessage{Event: EventCatalogReloaded})
	}
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue is full")
}
