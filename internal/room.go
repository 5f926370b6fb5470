package internal

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// 系統設計問題：
//   兩名玩家的對戰狀態由多條連線工作者併發讀寫，
//   如何保證每個人看到一致的對手視圖與權威血量？
//
// 核心挑戰：
//   1. 狀態管理：房間有明確的狀態轉換（waiting → active → finished）
//   2. 併發控制：兩條連線工作者與道具計時器同時觸碰成員、道具集、血量
//   3. 伺服器權威：碰撞、血量、勝負必須由伺服器裁決後才轉發
//   4. 慢速對端：廣播絕不能因為某條連線卡住而拖住整個房間
//
// 設計方案：
//   ✅ 有限狀態機（FSM）- 開局與終局各自恰好觸發一次
//   ✅ 單一 Mutex - 成員、道具集、血量的每次讀改寫都線性化
//   ✅ 緩衝出信箱 - 非阻塞投遞，房間鎖內不做網路 I/O
//   ✅ 計時器任務與訊息管線共用同一把鎖，絕無未協調的定時回呼

// RoomStatus 房間狀態
//
// 有限狀態機：
//
//	waiting → active → finished
//
// 狀態轉換規則：
//   - waiting → active：第二名成員加入的瞬間，恰好觸發一次
//   - active → finished：任一成員血量歸零的瞬間
//   - finished 之後沒有任何轉換；房間只在成員全部斷線後被拆除
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"  // 0 或 1 名成員，等待配對
	StatusActive   RoomStatus = "active"   // 2 名成員，對戰進行中
	StatusFinished RoomStatus = "finished" // 勝負已定
)

// RoomCapacity 一個房間恰好容納兩名玩家
const RoomCapacity = 2

// GameRules 房間的玩法參數（道具節奏與生成範圍）
type GameRules struct {
	ItemSpawnInterval time.Duration // 道具生成週期
	ItemLifetime      time.Duration // 道具存活時間
	SpawnMin          int           // 生成座標下界
	SpawnMax          int           // 生成座標上界
}

// DefaultRules 沿用原始玩法的預設節奏
func DefaultRules() GameRules {
	return GameRules{
		ItemSpawnInterval: 5 * time.Second,
		ItemLifetime:      10 * time.Second,
		SpawnMin:          100,
		SpawnMax:          400,
	}
}

// Player 一條連線在房間內的伺服器端狀態
//
// 角色在加入時依位置指派且終生不變；血量是伺服器權威值，
// 客戶端回報的 hp 永遠只是參考。出信箱由連線的寫入工作者汲取，
// 房間端的投遞一律非阻塞。
type Player struct {
	ID     string // 伺服器指派的不透明識別碼
	Role   Role
	HP     int
	Bounds *Rect // 最後已知的玩家矩形；nil 表示尚未回報或已離開視野

	out       chan *StateMessage
	closeOnce sync.Once
}

// NewPlayer 建立玩家，血量為初始值
func NewPlayer(id string) *Player {
	return &Player{
		ID:  id,
		HP:  InitialHP,
		out: make(chan *StateMessage, 64),
	}
}

// Outbox 出信箱；連線的寫入工作者從這裡汲取待送訊息
func (p *Player) Outbox() <-chan *StateMessage {
	return p.out
}

// deliver 非阻塞投遞：出信箱滿了就丟棄該幀
//
// 丟幀而不等待是刻意的：對端卡住時，下一次實際寫入
// 會以傳輸錯誤失敗並觸發斷線清理，房間鎖不會被網路拖住。
func (p *Player) deliver(msg *StateMessage) bool {
	select {
	case p.out <- msg:
		return true
	default:
		return false
	}
}

// closeOutbox 關閉出信箱（只會生效一次）
func (p *Player) closeOutbox() {
	p.closeOnce.Do(func() {
		close(p.out)
	})
}

// Item 房間持有的道具：線上形狀加上生成時間
type Item struct {
	ItemState
	CreatedAt time.Time
}

// Room 一場對戰的全部狀態
//
// 成員列表、道具集、每名成員的血量是唯一跨執行緒共享的狀態，
// 全部讀改寫都在 mu 之內；兩個 ProcessIncoming 或道具計時器的
// 任何組合都不會交錯各自的讀改寫序列。
type Room struct {
	ID string

	mu         sync.Mutex
	players    []*Player // 順序決定角色：index 0 → Player1
	items      map[string]*Item
	status     RoomStatus
	winner     Role // 僅在 finished 後有意義
	lastActive time.Time

	rules    GameRules
	logger   *slog.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRoom 建立房間
func NewRoom(id string, rules GameRules, logger *slog.Logger) *Room {
	return &Room{
		ID:         id,
		items:      make(map[string]*Item),
		status:     StatusWaiting,
		lastActive: time.Now(),
		rules:      rules,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

// AddPlayer 加入玩家
//
// 容量違規靜默拒絕：註冊表應該先檢查過容量，
// 但房間自身仍然防禦。第一名成員成為 Player1，
// 第二名成員加入的瞬間觸發 waiting → active：
// 對雙方廣播開局訊息（各自的角色與初始血量），並啟動道具循環。
//
// 歡迎訊息（clientId、roomId、角色、初始血量）在同一個鎖區段內
// 先於任何開局廣播入列，客戶端收到的順序因此固定。
func (r *Room) AddPlayer(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) >= RoomCapacity {
		return
	}

	if len(r.players) == 0 {
		p.Role = RolePlayer1
	} else {
		p.Role = RolePlayer2
	}
	r.players = append(r.players, p)
	r.lastActive = time.Now()

	// 連線成功的第一則訊息：指派的身份
	p.deliver(&StateMessage{
		ClientID:   p.ID,
		RoomID:     r.ID,
		PlayerRole: p.Role,
		HP:         IntPtr(p.HP),
	})

	if len(r.players) == RoomCapacity && r.status == StatusWaiting {
		r.status = StatusActive
		for _, member := range r.players {
			member.deliver(&StateMessage{
				ClientID:    member.ID,
				RoomID:      r.ID,
				PlayerRole:  member.Role,
				HP:          IntPtr(member.HP),
				GameStarted: true,
			})
		}
		r.wg.Add(1)
		go r.itemLoop()

		r.logger.Info("對戰開始", "room_id", r.ID)
	}
}

// RemovePlayer 移除玩家，回傳房間是否因此清空
//
// 不會復活已結束的對戰。對戰進行中離開時，
// 留下的一方會收到一則帶離開者 clientId、但沒有玩家矩形的訊息，
// 作為「把對手從畫面移除」的提示。
func (r *Room) RemovePlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return len(r.players) == 0
	}

	leaving := r.players[idx]
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	r.lastActive = time.Now()
	leaving.closeOutbox()

	for _, member := range r.players {
		member.deliver(&StateMessage{
			ClientID: leaving.ID,
			RoomID:   r.ID,
		})
	}

	if len(r.players) == 0 {
		r.stopItems()
	}
	return len(r.players) == 0
}

// ProcessIncoming 每則客戶端訊息的中央管線
//
// 整條管線在房間鎖內執行：
//  1. 彈體仲裁 - 對每枚未處理的彈體推進一步，測試與其他成員
//     最後已知矩形的相交；首次命中使該成員血量 -1（下限 0），
//     並把彈體標記為已處理，重複訊息不會重複扣血
//  2. 道具拾取 - 訊息引用且與寄件者矩形相交的未消耗道具，
//     恰好消耗一次：移出共享集、生效（血量道具 +1，上限 MaxHP；
//     速度道具僅轉發），並對全員廣播移除通知
//  3. 權威覆寫 - 轉發前以伺服器持有的血量覆寫訊息的 hp
//  4. 轉發 - 送給寄件者以外的所有成員
//  5. 終局判定 - 任一成員血量歸零即轉換到 finished
func (r *Room) ProcessIncoming(msg *StateMessage, senderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sender := r.playerLocked(senderID)
	if sender == nil {
		return
	}
	r.lastActive = time.Now()

	// 寄件者身份由伺服器覆寫，客戶端自報的值不可信
	msg.ClientID = sender.ID
	msg.RoomID = r.ID
	msg.PlayerRole = sender.Role

	if msg.Player != nil {
		bounds := *msg.Player
		sender.Bounds = &bounds
	}

	// 1. 彈體仲裁
	damaged := make(map[string]bool)
	for i := range msg.Projectiles {
		if msg.Projectiles[i].Processed {
			continue
		}
		advanced := msg.Projectiles[i].Advance()
		for _, other := range r.players {
			if other.ID == sender.ID || other.Bounds == nil {
				continue
			}
			if Intersects(advanced.Bounds(), *other.Bounds) {
				other.HP = ClampHP(other.HP - 1)
				damaged[other.ID] = true
				msg.Projectiles[i].Processed = true
				break
			}
		}
	}

	// 2. 道具拾取（沒有矩形就沒有拾取）
	if msg.Player != nil {
		for _, ref := range msg.Items {
			item, ok := r.items[ref.ID]
			if !ok {
				// 未知或已移除的道具 ID：不是錯誤
				continue
			}
			if !Intersects(*msg.Player, item.Bounds()) {
				continue
			}
			delete(r.items, item.ID)
			if item.Kind == ItemHealth {
				sender.HP = ClampHP(sender.HP + 1)
			}
			r.broadcastLocked(&StateMessage{
				RoomID:      r.ID,
				ItemRemoved: item.ID,
			})
		}
	}

	// 3 + 4. 權威覆寫後轉發給寄件者以外的成員。
	// 收件者在本則訊息內被擊中時，hp 帶的是收件者自己的新權威血量，
	// 被擊中的一方因此立刻得知伺服器裁定的結果；
	// 其餘情況帶寄件者的權威血量。
	for _, other := range r.players {
		if other.ID == sender.ID {
			continue
		}
		relay := *msg
		if damaged[other.ID] {
			relay.HP = IntPtr(other.HP)
		} else {
			relay.HP = IntPtr(sender.HP)
		}
		other.deliver(&relay)
	}

	// 5. 終局判定
	if r.status == StatusActive {
		for _, p := range r.players {
			if p.HP <= 0 {
				r.finishLocked(p)
				break
			}
		}
	}
}

// finishLocked 執行 active → finished，恰好一次（呼叫端持鎖）
//
// 終局廣播對每名收件者各自標記 winner：存活的一方為勝者。
func (r *Room) finishLocked(loser *Player) {
	r.status = StatusFinished
	for _, p := range r.players {
		if p.ID != loser.ID {
			r.winner = p.Role
		}
	}
	for _, p := range r.players {
		p.deliver(&StateMessage{
			ClientID:   p.ID,
			RoomID:     r.ID,
			PlayerRole: p.Role,
			HP:         IntPtr(p.HP),
			GameOver:   true,
			Winner:     p.Role == r.winner,
		})
	}
	r.stopItems()

	r.logger.Info("對戰結束", "room_id", r.ID, "winner", string(r.winner))
}

// itemLoop 道具生命週期循環：只在 active 期間運作的定期任務
//
// 生成與過期和訊息管線搶同一把房間鎖，
// 道具集永遠不會被未協調的計時器執行緒觸碰。
func (r *Room) itemLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.rules.ItemSpawnInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.SpawnItem()
			r.ExpireItems()
		case <-r.stopCh:
			return
		}
	}
}

// SpawnItem 生成一枚道具並廣播（公開供測試直接驅動）
//
// 一半機率生成血量道具，否則生成速度增減道具之一，
// 位置落在設定的生成範圍內。房間不在 active 狀態時不生成。
func (r *Room) SpawnItem() *ItemState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusActive {
		return nil
	}

	kind := ItemHealth
	if rand.Intn(2) == 1 {
		if rand.Intn(2) == 0 {
			kind = ItemSpeedUp
		} else {
			kind = ItemSpeedDown
		}
	}

	span := r.rules.SpawnMax - r.rules.SpawnMin
	if span <= 0 {
		span = 1
	}
	item := &Item{
		ItemState: ItemState{
			ID:   "item_" + uuid.NewString(),
			X:    r.rules.SpawnMin + rand.Intn(span),
			Y:    r.rules.SpawnMin + rand.Intn(span),
			Kind: kind,
		},
		CreatedAt: time.Now(),
	}
	r.items[item.ID] = item
	r.broadcastNewItemLocked(item)

	state := item.ItemState
	return &state
}

// PlaceItem 放入一枚指定位置與種類的道具並廣播生成
// （伺服器擁有道具生命週期；此入口亦供測試注入固定道具）
func (r *Room) PlaceItem(state ItemState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state.ID == "" {
		state.ID = "item_" + uuid.NewString()
	}
	item := &Item{ItemState: state, CreatedAt: time.Now()}
	r.items[item.ID] = item
	r.broadcastNewItemLocked(item)
}

// ExpireItems 移除所有超過存活時間的道具並廣播移除
// （公開供測試直接驅動；平時由道具循環在每個 tick 呼叫）
func (r *Room) ExpireItems() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for id, item := range r.items {
		if now.Sub(item.CreatedAt) > r.rules.ItemLifetime {
			delete(r.items, id)
			r.broadcastLocked(&StateMessage{
				RoomID:      r.ID,
				ItemRemoved: id,
			})
		}
	}
}

// broadcastNewItemLocked 廣播道具生成，附帶目前完整道具集（呼叫端持鎖）
func (r *Room) broadcastNewItemLocked(item *Item) {
	list := make([]ItemState, 0, len(r.items))
	for _, it := range r.items {
		list = append(list, it.ItemState)
	}
	state := item.ItemState
	r.broadcastLocked(&StateMessage{
		RoomID:  r.ID,
		Items:   list,
		NewItem: &state,
	})
}

// broadcastLocked 對房間全員投遞（呼叫端持鎖）
func (r *Room) broadcastLocked(msg *StateMessage) {
	for _, p := range r.players {
		if !p.deliver(msg) {
			r.logger.Warn("出信箱已滿，丟棄訊息",
				"room_id", r.ID,
				"player_id", p.ID)
		}
	}
}

// stopItems 停止道具循環（只會生效一次）
func (r *Room) stopItems() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
}

// Close 拆除房間：停掉道具循環、關閉所有出信箱
func (r *Room) Close(reason string) {
	r.mu.Lock()
	r.stopItems()
	for _, p := range r.players {
		p.closeOutbox()
	}
	r.players = nil
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info("房間已關閉", "room_id", r.ID, "reason", reason)
}

// IsExpired 判斷房間是否該被清理
//
// 正常的拆除路徑是最後一名成員斷線；這裡只是安全網：
// 空房間閒置 5 分鐘、或終局後滯留 30 分鐘的房間視為過期。
func (r *Room) IsExpired() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idle := time.Since(r.lastActive)
	if len(r.players) == 0 && idle > 5*time.Minute {
		return true
	}
	if r.status == StatusFinished && idle > 30*time.Minute {
		return true
	}
	return false
}

// Joinable 房間是否還能接受新成員
//
// 只有 waiting 狀態的房間可加入：已開局的房間即使有人離開
// 也不補位，開局轉換因此在房間的一生中恰好觸發一次。
func (r *Room) Joinable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status == StatusWaiting && len(r.players) < RoomCapacity
}

// playerLocked 依 ID 找成員（呼叫端持鎖）
func (r *Room) playerLocked(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Status 目前狀態
func (r *Room) Status() RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Winner 勝者角色，僅在 finished 後有意義
func (r *Room) Winner() Role {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winner
}

// PlayerCount 目前成員數
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// ItemCount 目前共享道具集的大小
func (r *Room) ItemCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// PlayerHP 查詢某成員的權威血量
func (r *Room) PlayerHP(playerID string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.playerLocked(playerID); p != nil {
		return p.HP, true
	}
	return 0, false
}

// PlayerRoleOf 查詢某成員被指派的角色
func (r *Room) PlayerRoleOf(playerID string) (Role, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.playerLocked(playerID); p != nil {
		return p.Role, true
	}
	return "", false
}
