package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/subs_go_server/internal/pkg/jwt"
	"github.com/qs3c/subs_go_server/internal/pkg/response"
	"github.com/qs3c/subs_go_server/internal/pkg/ws"
)

const wsSecret = "ws-test-secret"

func setupWebSocketServer(t *testing.T, origins []string) (*ws.Hub, *httptest.Server) {
	t.Helper()

	hub := ws.NewHub(nil)
	router := gin.New()
	router.GET("/ws", NewWebSocketHandler(hub, wsSecret, origins, nil).Handle)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return hub, server
}

func wsURL(server *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
}

func TestWebSocketHandler_Connect(t *testing.T) {
	hub, server := setupWebSocketServer(t, nil)

	token, err := jwt.GenerateToken(77, wsSecret, 1)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, token), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.IsOnline(77) }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.SendToUser(77, &ws.Message{Type: "subscription.expired"}))
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "subscription.expired")

	conn.Close()
	require.Eventually(t, func() bool { return !hub.IsOnline(77) }, time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_RejectsBadToken(t *testing.T) {
	_, server := setupWebSocketServer(t, nil)

	for _, token := range []string{"", "garbage"} {
		resp, err := http.Get(server.URL + "/ws?token=" + token)
		require.NoError(t, err)

		var body response.Response
		require.NoError(t, decodeBody(resp, &body))
		assert.Equal(t, response.CodeAuthFailed, body.Code)
	}
}

func TestWebSocketHandler_RejectsOrigin(t *testing.T) {
	hub, server := setupWebSocketServer(t, []string{"http://localhost:3000"})

	token, err := jwt.GenerateToken(78, wsSecret, 1)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Origin", "http://evil.com")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, token), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, hub.IsOnline(78))

	header.Set("Origin", "http://localhost:3000")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, token), header)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.IsOnline(78) }, time.Second, 10*time.Millisecond)
}
