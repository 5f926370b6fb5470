package internal

import (
	"encoding/json"
	"fmt"
)

// 系統設計問題：
//   雙人射擊遊戲的所有狀態（位置、彈幕、道具、血量、勝負）
//   如何用單一訊息形狀在雙向串流上同步？
//
// 核心挑戰：
//   1. 單一訊息形狀：客戶端與伺服器交換的是同一個結構，
//      只是不同欄位在不同方向上有意義
//   2. 「缺席」語意：player 欄位缺席代表「把我從對手畫面移除」，
//      不能和零值矩形混淆
//   3. 伺服器權威：hp、clientId 由伺服器在轉發前覆寫，
//      客戶端回報值僅供參考
//
// 設計方案：
//   ✅ 指標欄位（*Rect、*int）區分「缺席」與「存在但為零」
//   ✅ omitempty - 線上只攜帶有值的欄位
//   ✅ 封閉列舉（Role、ItemKind、RoomStatus）取代散落的字串字面量

// Role 玩家角色，依加入順序指派且終生不變
type Role string

const (
	RolePlayer1 Role = "Player1" // 房間的第一位成員
	RolePlayer2 Role = "Player2" // 房間的第二位成員
)

// ItemKind 道具種類
type ItemKind string

const (
	ItemHealth    ItemKind = "hp"         // 拾取後 HP +1（上限 MaxHP）
	ItemSpeedUp   ItemKind = "speed_up"   // 僅轉發，移動速度由客戶端調整
	ItemSpeedDown ItemKind = "speed_down" // 僅轉發，移動速度由客戶端調整
)

// Rect 軸對齊矩形，遊戲內所有碰撞判定的基本單位
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Projectile 客戶端回報的飛行彈體
//
// 彈體不在伺服器端持久化：伺服器只用當前訊息裡的彈體
// 對對手矩形做一次碰撞判定，然後原樣轉發。
// Processed 防止同一彈體在重複訊息中被重複計算傷害。
type Projectile struct {
	X          int  `json:"x"`
	Y          int  `json:"y"`
	DirectionX int  `json:"direction_x"`
	DirectionY int  `json:"direction_y"`
	Processed  bool `json:"processed,omitempty"`
}

// ItemState 道具在線上的形狀（生成廣播與拾取引用共用）
type ItemState struct {
	ID   string   `json:"id"`
	X    int      `json:"x"`
	Y    int      `json:"y"`
	Kind ItemKind `json:"kind"`
}

// StateMessage 唯一的線上訊息形狀
//
// 欄位方向性：
//   - 客戶端 → 伺服器：player、projectiles、items（拾取引用）、hp（參考值）
//   - 伺服器 → 客戶端：覆寫後的 hp 與 client_id、new_item、item_removed、
//     game_started、game_over、winner
//
// 可選性：
//   - Player 為 nil 表示寄件者離開可視區域 / 斷線，是移除提示而非位置更新
//   - HP 為 nil 表示本訊息不攜帶血量（例如純道具廣播）
type StateMessage struct {
	ClientID    string       `json:"client_id,omitempty"`
	Player      *Rect        `json:"player,omitempty"`
	Projectiles []Projectile `json:"projectiles,omitempty"`
	Items       []ItemState  `json:"items,omitempty"`
	RoomID      string       `json:"room_id,omitempty"`
	PlayerRole  Role         `json:"player_role,omitempty"`
	HP          *int         `json:"hp,omitempty"`
	GameStarted bool         `json:"game_started,omitempty"`
	GameOver    bool         `json:"game_over,omitempty"`
	Winner      bool         `json:"winner,omitempty"`
	NewItem     *ItemState   `json:"new_item,omitempty"`
	ItemRemoved string       `json:"item_removed,omitempty"`
}

// EncodeMessage 序列化一則訊息
func EncodeMessage(msg *StateMessage) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("編碼訊息失敗: %w", err)
	}
	return data, nil
}

// DecodeMessage 反序列化一則訊息
//
// 解碼失敗視同傳輸錯誤：呼叫端應中斷該連線，
// 絕不能讓錯誤波及房間或其他連線。
func DecodeMessage(data []byte) (*StateMessage, error) {
	var msg StateMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("解碼訊息失敗: %w", err)
	}
	return &msg, nil
}

// IntPtr 回傳整數的指標，構造可選 hp 欄位時使用
func IntPtr(v int) *int {
	return &v
}
