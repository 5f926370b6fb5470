// Package internal 實作雙人即時射擊遊戲的權威會話伺服器。
//
// 兩名客戶端經由持久的 WebSocket 連線進場，被配對進一間「房間」，
// 此後透過伺服器交換位置、彈體、道具與血量狀態；
// 碰撞、道具生命週期與勝負判定全部以伺服器為唯一真相來源。
//
// 架構分層：
//   - Hub（websocket.go）：連線接收、身份鑄造、每連線讀寫工作者
//   - Manager（manager.go）：會話註冊表，原子配對與離場清理
//   - Room（room.go）：單場對戰的狀態機、仲裁管線與道具循環
//   - 仲裁引擎（collision.go）：純函數的相交判定與血量夾取
//   - 線上協定（message.go）：單一 StateMessage 形狀與其編解碼
//   - Handler（handler.go）：唯讀的維運觀測介面
//   - Presence（presence.go）：觀測值定期發布到 Redis
//
// 併發模型：每條連線一個接收工作者（阻塞收 → 仲裁 → 廣播），
// 每間活躍房間一個道具計時任務；兩者對同一把房間鎖排隊，
// 房間內的一切讀改寫因此線性化。房間之間彼此獨立，互不保證順序。
package internal
