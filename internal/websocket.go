package internal

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// 系統設計問題：
//   每名客戶端一條持久、有序、可靠的位元組串流，
//   連線進場即配對，此後持續雙向交換 StateMessage——
//   沒有請求/回應配對，是一條連續的串流。
//
// 設計方案：
//   ✅ WebSocket - 全雙工、有序、可靠（文字幀攜帶 JSON 訊息）
//   ✅ 每連線兩個 goroutine - readPump 阻塞收、writePump 汲取出信箱
//   ✅ Ping/Pong 心跳 - 檢測死連線（54s/60s）
//   ✅ 任何傳輸或解碼錯誤都只拆除該連線本身

// Hub 連線接收器：升級連線、鑄造身份、交給註冊表配對
type Hub struct {
	manager     *Manager
	logger      *slog.Logger
	upgrader    websocket.Upgrader
	connections map[string]*Connection // clientID -> Connection
	mu          sync.RWMutex
}

// Connection 一條客戶端連線：WebSocket、房間內的玩家狀態、所屬房間
type Connection struct {
	ClientID string
	Conn     *websocket.Conn
	Player   *Player
	Room     *Room
	hub      *Hub
}

// NewHub 建立連線接收器
func NewHub(manager *Manager, logger *slog.Logger) *Hub {
	return &Hub{
		manager: manager,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// 生產環境應檢查來源
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[string]*Connection),
	}
}

// ServeWS 處理一條進場連線
//
// 升級後：鑄造客戶端識別碼 → 註冊表配對（歡迎訊息在配對時
// 已入列出信箱）→ 啟動讀寫工作者。此後這條連線的一切
// 都發生在它自己的兩個 goroutine 裡。
func (hub *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("升級 WebSocket 失敗", "error", err)
		return
	}

	clientID := uuid.NewString()
	player := NewPlayer(clientID)
	room := hub.manager.Assign(player)

	c := &Connection{
		ClientID: clientID,
		Conn:     conn,
		Player:   player,
		Room:     room,
		hub:      hub,
	}
	hub.register(c)

	go c.writePump()
	go c.readPump()

	hub.logger.Info("客戶端連線",
		"client_id", clientID,
		"room_id", room.ID,
		"remote", r.RemoteAddr)
}

// register 登記連線
func (hub *Hub) register(c *Connection) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.connections[c.ClientID] = c
}

// unregister 註銷連線並釋放其房間名額
//
// 斷線（串流錯誤或正常關閉）立即：停止該連線的工作者、
// 把玩家移出房間、房間因此清空時從註冊表移除。
// 對手不會看到錯誤，只會看到離開者的缺席。
func (hub *Hub) unregister(c *Connection) {
	hub.mu.Lock()
	if actual, exists := hub.connections[c.ClientID]; exists && actual == c {
		delete(hub.connections, c.ClientID)
	}
	hub.mu.Unlock()

	hub.manager.Release(c.ClientID)

	hub.logger.Info("客戶端斷線", "client_id", c.ClientID, "room_id", c.Room.ID)
}

// ConnectionCount 目前連線數（儀表板觀測值）
func (hub *Hub) ConnectionCount() int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.connections)
}

// Stop 關閉所有連線
func (hub *Hub) Stop() {
	hub.mu.Lock()
	for _, c := range hub.connections {
		c.Conn.Close()
	}
	hub.connections = make(map[string]*Connection)
	hub.mu.Unlock()

	hub.logger.Info("連線接收器已停止")
}

// readPump 連線的接收工作者：阻塞收 → 解碼 → 房間仲裁
//
// 解碼失敗與傳輸失敗同等對待：中斷這條連線，
// 絕不讓它波及房間或其他連線。
func (c *Connection) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.Conn.Close()
	}()

	if err := c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		c.hub.logger.Error("設置讀取期限失敗", "error", err)
	}
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		messageType, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("WebSocket 讀取錯誤",
					"error", err,
					"client_id", c.ClientID)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		msg, err := DecodeMessage(data)
		if err != nil {
			// 畸形訊息：這條連線直接出局
			c.hub.logger.Warn("訊息解碼失敗，中斷連線",
				"error", err,
				"client_id", c.ClientID)
			return
		}

		c.Room.ProcessIncoming(msg, c.ClientID)
	}
}

// writePump 連線的傳送工作者：汲取出信箱 → 編碼 → 寫入
//
// 寫入帶期限，慢速或斷裂的對端在這裡快速失敗，
// 轉為斷線處理，而不是卡住任何人。
// Ping 間隔 54 秒，配合讀取端 60 秒的期限。
func (c *Connection) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Player.Outbox():
			if err := c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				c.hub.logger.Error("設置寫入期限失敗", "error", err)
			}
			if !ok {
				// 房間關閉了出信箱，優雅道別
				_ = c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			data, err := EncodeMessage(msg)
			if err != nil {
				c.hub.logger.Error("訊息編碼失敗", "error", err, "client_id", c.ClientID)
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				c.hub.logger.Error("設置寫入期限失敗", "error", err)
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
