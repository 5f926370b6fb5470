package internal

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Handler 唯讀的維運/儀表板 HTTP 介面
//
// 核心只暴露可觀測狀態（房間數、每房人數、連線數）
// 供外部儀表板輪詢；所有會話狀態的變更都走 WebSocket。
type Handler struct {
	manager *Manager
	hub     *Hub
	logger  *slog.Logger
}

// NewHandler 建立處理器
func NewHandler(manager *Manager, hub *Hub, logger *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		hub:     hub,
		logger:  logger,
	}
}

// Routes 設定路由
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	// 中間件鏈
	wrap := func(handler http.HandlerFunc) http.HandlerFunc {
		return h.recoverer(h.loggerMiddleware(handler))
	}

	mux.HandleFunc("GET /api/v1/rooms", wrap(h.listRooms))
	mux.HandleFunc("GET /stats", wrap(h.stats))
	mux.HandleFunc("GET /health", wrap(h.health))

	return mux
}

// listRooms 房間列表：ID、狀態、人數、道具數
func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request) {
	snapshot := h.manager.Snapshot()
	h.jsonResponse(w, map[string]any{
		"rooms": snapshot,
		"total": len(snapshot),
	}, http.StatusOK)
}

// stats 整體統計
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats := h.manager.Stats()
	stats["connections"] = h.hub.ConnectionCount()
	h.jsonResponse(w, stats, http.StatusOK)
}

// health 健康檢查
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, map[string]any{
		"status": "ok",
		"time":   time.Now().Unix(),
	}, http.StatusOK)
}

// jsonResponse 寫出 JSON 回應
func (h *Handler) jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("寫出回應失敗", "error", err)
	}
}

// loggerMiddleware 記錄每個請求
func (h *Handler) loggerMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		h.logger.Debug("http 請求",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	}
}

// recoverer 攔截 panic，避免單一請求拖垮整個行程
func (h *Handler) recoverer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("請求處理 panic",
					"panic", rec,
					"path", r.URL.Path)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}
