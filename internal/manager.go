package internal

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager 會話註冊表：連線的進場配對與離場清理
//
// 系統設計考量：
//
//  1. 原子配對：
//     問題：兩條連線同時到達，可能各自開出兩間半滿的房，
//     或同時擠進同一間房的最後一個名額
//     方案：掃描與插入在同一把註冊表鎖內完成
//     結果：永遠不會有兩間半滿的房並存，房間也永遠不超過兩人
//
//  2. 鎖順序：
//     規則：先取註冊表鎖，再取房間鎖；絕不反向
//     Release 與 Assign 都遵守，與併發的加入/離開不會死鎖
//
//  3. 資源回收：
//     正常路徑：最後一名成員斷線時房間立即移除
//     安全網：清理循環定期移除過期房間（空置或終局滯留）
type Manager struct {
	rooms      map[string]*Room
	playerRoom map[string]string // playerID -> roomID
	mu         sync.Mutex
	rules      GameRules
	logger     *slog.Logger
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// NewManager 建立註冊表並啟動清理循環
func NewManager(rules GameRules, logger *slog.Logger) *Manager {
	m := &Manager{
		rooms:      make(map[string]*Room),
		playerRoom: make(map[string]string),
		rules:      rules,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

// Assign 把新連線指派到第一間可加入的房間，否則開新房
//
// 容量檢查與插入是一個原子步驟：整段掃描-或-建立
// 都在註冊表鎖內，玩家加入房間也在同一鎖區段內完成。
func (m *Manager) Assign(p *Player) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, room := range m.rooms {
		if room.Joinable() {
			room.AddPlayer(p)
			m.playerRoom[p.ID] = room.ID

			m.logger.Info("玩家配對到既有房間",
				"room_id", room.ID,
				"player_id", p.ID,
				"players", room.PlayerCount())
			return room
		}
	}

	room := NewRoom("room_"+uuid.NewString(), m.rules, m.logger)
	m.rooms[room.ID] = room
	room.AddPlayer(p)
	m.playerRoom[p.ID] = room.ID

	m.logger.Info("建立新房間",
		"room_id", room.ID,
		"player_id", p.ID)
	return room
}

// Release 把連線移出其房間；房間因此清空時一併移除
func (m *Manager) Release(playerID string) {
	m.mu.Lock()
	roomID, ok := m.playerRoom[playerID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.playerRoom, playerID)

	var emptied *Room
	if room, exists := m.rooms[roomID]; exists {
		if room.RemovePlayer(playerID) {
			delete(m.rooms, roomID)
			emptied = room
		}
	}
	m.mu.Unlock()

	m.logger.Info("玩家離開",
		"room_id", roomID,
		"player_id", playerID)

	if emptied != nil {
		emptied.Close("empty")
	}
}

// GetRoom 依 ID 查房間
func (m *Manager) GetRoom(roomID string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, exists := m.rooms[roomID]
	if !exists {
		return nil, fmt.Errorf("房間不存在: %s", roomID)
	}
	return room, nil
}

// PlayerRoom 查某玩家所在的房間 ID
func (m *Manager) PlayerRoom(playerID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	roomID, exists := m.playerRoom[playerID]
	return roomID, exists
}

// cleanupLoop 定期清理過期房間
func (m *Manager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Cleanup()
		case <-m.stopCh:
			return
		}
	}
}

// Cleanup 執行一輪清理（公開供測試直接驅動）
func (m *Manager) Cleanup() {
	m.mu.Lock()
	var stale []*Room
	for roomID, room := range m.rooms {
		if room.IsExpired() {
			delete(m.rooms, roomID)
			for pid, rid := range m.playerRoom {
				if rid == roomID {
					delete(m.playerRoom, pid)
				}
			}
			stale = append(stale, room)
		}
	}
	m.mu.Unlock()

	for _, room := range stale {
		room.Close("expired")
		m.logger.Info("房間已過期清理", "room_id", room.ID)
	}
}

// Stop 停止註冊表：結束清理循環並關閉所有房間
func (m *Manager) Stop() {
	close(m.stopCh)
	m.wg.Wait()

	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.rooms = make(map[string]*Room)
	m.playerRoom = make(map[string]string)
	m.mu.Unlock()

	for _, room := range rooms {
		room.Close("server_shutdown")
	}

	m.logger.Info("會話註冊表已停止")
}

// RoomInfo 儀表板可輪詢的唯讀房間觀測值
type RoomInfo struct {
	ID      string     `json:"room_id"`
	Status  RoomStatus `json:"status"`
	Players int        `json:"current_players"`
	Items   int        `json:"items"`
}

// Snapshot 目前所有房間的唯讀快照
func (m *Manager) Snapshot() []RoomInfo {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mu.Unlock()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, RoomInfo{
			ID:      room.ID,
			Status:  room.Status(),
			Players: room.PlayerCount(),
			Items:   room.ItemCount(),
		})
	}
	return infos
}

// Stats 統計資訊
func (m *Manager) Stats() map[string]any {
	snapshot := m.Snapshot()

	statusCount := make(map[RoomStatus]int)
	totalPlayers := 0
	for _, info := range snapshot {
		statusCount[info.Status]++
		totalPlayers += info.Players
	}

	return map[string]any{
		"total_rooms":   len(snapshot),
		"total_players": totalPlayers,
		"by_status":     statusCount,
	}
}
