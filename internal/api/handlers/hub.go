package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/pkg/logger"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is the envelope pushed to websocket clients
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Hub streams run results to websocket clients
// ⭐ SSOT: 실행 결과 실시간 전송은 여기서만
type Hub struct {
	clients map[*wsClient]bool
	mu      sync.RWMutex
	logger  *logger.Logger
}

// NewHub creates a new hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*wsClient]bool),
		logger:  log,
	}
}

// ServeWS upgrades the request and registers the client
// GET /ws
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn}
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	h.logger.WithField("clients", h.ClientCount()).Debug("WebSocket client connected")

	// 클라이언트 메시지는 무시, 연결 종료 감지용
	go func() {
		defer h.remove(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends a finished run to every client
func (h *Hub) Broadcast(result contracts.RunResult) {
	data, err := json.Marshal(WSMessage{Type: "run_finished", Payload: result})
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal run result")
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.mu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := c.conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()

		if err != nil {
			h.logger.WithError(err).Warn("Failed to send run result to client")
			h.remove(c)
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		_ = c.conn.Close()
	}
}
