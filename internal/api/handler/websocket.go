package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/qs3c/subs_go_server/internal/pkg/jwt"
	"github.com/qs3c/subs_go_server/internal/pkg/response"
	"github.com/qs3c/subs_go_server/internal/pkg/ws"
)

type WebSocketHandler struct {
	hub       *ws.Hub
	jwtSecret string
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

// NewWebSocketHandler allowedOrigins 为空时不校验 Origin
func NewWebSocketHandler(hub *ws.Hub, jwtSecret string, allowedOrigins []string, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	return &WebSocketHandler{
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(origins) == 0 {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
	}
}

// Handle 建立订阅事件推送连接
// GET /api/v1/ws?token=xxx
func (h *WebSocketHandler) Handle(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.AuthError(c, "请提供认证信息")
		return
	}

	claims, err := jwt.ParseToken(token, h.jwtSecret)
	if err != nil {
		response.AuthError(c, "认证失败或已过期")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", zap.Error(err))
		return
	}

	client := &ws.Client{
		UserID: claims.UserID,
		Conn:   conn,
	}
	h.hub.Register(client)

	// 只读不处理，用于检测断开
	go func() {
		defer func() {
			h.hub.Unregister(client)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
