package internal

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// presence 鍵名與存活時間：伺服器停止發布後，儀表板讀到的
// 殘留值會在 TTL 內自然消失。
const (
	presenceRoomsKey       = "presence:rooms"
	presenceRoomTotalKey   = "presence:room_total"
	presencePlayerTotalKey = "presence:player_total"
	presenceTTL            = 30 * time.Second
)

// Presence 把核心的可觀測狀態定期發布到 Redis
//
// 房間數與每房人數是核心對外的唯讀觀測值；遠端儀表板
// 輪詢 Redis 而不是直接打進遊戲行程。發布是盡力而為：
// 失敗只記日誌，絕不影響任何房間。
type Presence struct {
	client   *redis.Client
	manager  *Manager
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewPresence 建立發布器
func NewPresence(client *redis.Client, manager *Manager, interval time.Duration, logger *slog.Logger) *Presence {
	return &Presence{
		client:   client,
		manager:  manager,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start 啟動發布循環
func (p *Presence) Start() {
	p.wg.Add(1)
	go p.loop()
}

func (p *Presence) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			if err := p.Publish(ctx); err != nil {
				p.logger.Warn("presence 發布失敗", "error", err)
			}
			cancel()
		case <-p.stopCh:
			return
		}
	}
}

// Publish 立即發布一次目前的快照（公開供測試直接驅動）
func (p *Presence) Publish(ctx context.Context) error {
	snapshot := p.manager.Snapshot()

	totalPlayers := 0
	fields := make(map[string]string, len(snapshot))
	for _, info := range snapshot {
		fields[info.ID] = strconv.Itoa(info.Players)
		totalPlayers += info.Players
	}

	pipe := p.client.TxPipeline()
	pipe.Del(ctx, presenceRoomsKey)
	if len(fields) > 0 {
		pipe.HSet(ctx, presenceRoomsKey, fields)
		pipe.Expire(ctx, presenceRoomsKey, presenceTTL)
	}
	pipe.Set(ctx, presenceRoomTotalKey, len(snapshot), presenceTTL)
	pipe.Set(ctx, presencePlayerTotalKey, totalPlayers, presenceTTL)

	_, err := pipe.Exec(ctx)
	return err
}

// Stop 停止發布循環
func (p *Presence) Stop() {
	close(p.stopCh)
	p.wg.Wait()
	p.logger.Info("presence 發布器已停止")
}
