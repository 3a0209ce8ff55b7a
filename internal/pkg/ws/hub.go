package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// Hub 按用户维护 WebSocket 连接，用于推送订阅状态变更
type Hub struct {
	// 每个用户可以有多个连接（多标签页、重连等场景）
	clients map[int64]map[*Client]struct{}
	mu      sync.RWMutex
	logger  *zap.Logger
}

type Client struct {
	UserID int64
	Conn   *websocket.Conn
	mu     sync.Mutex // 写锁，防止并发写入
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]struct{})
	}
	h.clients[client.UserID][client] = struct{}{}

	h.logger.Debug("websocket connected",
		zap.Int64("user_id", client.UserID),
		zap.Int("user_conns", len(h.clients[client.UserID])),
	)
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[client.UserID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	h.logger.Debug("websocket disconnected", zap.Int64("user_id", client.UserID))
}

// SendToUser 向指定用户的所有连接发送消息，用户不在线时直接返回
func (h *Hub) SendToUser(userID int64, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	conns, ok := h.clients[userID]
	if !ok {
		h.mu.RUnlock()
		return nil
	}
	// 复制一份引用，避免长时间持锁
	clients := make([]*Client, 0, len(conns))
	for c := range conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.mu.Lock()
		_ = c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := c.Conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
		if err != nil {
			h.logger.Warn("websocket write failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return nil
}

// IsOnline 检查用户是否在线
func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns, ok := h.clients[userID]
	return ok && len(conns) > 0
}

// ConnectionCount 获取在线连接数
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}
