package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveHub 每个连接注册为 userID，客户端断开后注销
func serveHub(t *testing.T, hub *Hub, userID int64) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := &Client{UserID: userID, Conn: conn}
		hub.Register(client)
		defer hub.Unregister(client)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	assert.NotNil(t, hub.clients)
	assert.Equal(t, 0, hub.ConnectionCount())
	assert.False(t, hub.IsOnline(1))
}

func TestHub_SendToUser_NotOnline(t *testing.T) {
	hub := NewHub(nil)

	err := hub.SendToUser(999, &Message{Type: "subscription.canceled"})
	assert.NoError(t, err)
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub(nil)
	server := serveHub(t, hub, 100)

	conn := dial(t, server)

	require.Eventually(t, func() bool { return hub.IsOnline(100) }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.ConnectionCount())

	conn.Close()

	require.Eventually(t, func() bool { return !hub.IsOnline(100) }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_SendToUser_AllConnections(t *testing.T) {
	hub := NewHub(nil)
	server := serveHub(t, hub, 200)

	first := dial(t, server)
	defer first.Close()
	second := dial(t, server)
	defer second.Close()

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 2 }, time.Second, 10*time.Millisecond)

	err := hub.SendToUser(200, &Message{
		Type: "subscription.expired",
		Data: map[string]interface{}{"subscription_id": 7},
	})
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, received, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"subscription.expired","data":{"subscription_id":7}}`, string(received))
	}
}

func TestHub_SendToUser_OtherUserNotNotified(t *testing.T) {
	hub := NewHub(nil)
	server := serveHub(t, hub, 300)

	conn := dial(t, server)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.IsOnline(300) }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.SendToUser(301, &Message{Type: "subscription.canceled"}))

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
