package internal_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/shooting-game/internal"
)

func setupHandler(t *testing.T) (*internal.Manager, http.Handler) {
	t.Helper()
	manager := internal.NewManager(slowRules(), testLogger())
	t.Cleanup(manager.Stop)
	hub := internal.NewHub(manager, testLogger())
	t.Cleanup(hub.Stop)
	handler := internal.NewHandler(manager, hub, testLogger())
	return manager, handler.Routes()
}

func getJSON(t *testing.T, routes http.Handler, path string) map[string]any {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandler_Health(t *testing.T) {
	_, routes := setupHandler(t)

	body := getJSON(t, routes, "/health")
	assert.Equal(t, "ok", body["status"])
	assert.NotZero(t, body["time"])
}

func TestHandler_Stats(t *testing.T) {
	manager, routes := setupHandler(t)

	manager.Assign(internal.NewPlayer("player_a"))
	manager.Assign(internal.NewPlayer("player_b"))
	manager.Assign(internal.NewPlayer("player_c"))

	body := getJSON(t, routes, "/stats")
	assert.Equal(t, float64(2), body["total_rooms"])
	assert.Equal(t, float64(3), body["total_players"])
	assert.Equal(t, float64(0), body["connections"]) // 直接指派，沒有走 WebSocket

	byStatus, ok := body["by_status"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), byStatus["active"])
	assert.Equal(t, float64(1), byStatus["waiting"])
}

func TestHandler_ListRooms(t *testing.T) {
	manager, routes := setupHandler(t)

	body := getJSON(t, routes, "/api/v1/rooms")
	assert.Equal(t, float64(0), body["total"])

	room := manager.Assign(internal.NewPlayer("player_a"))

	body = getJSON(t, routes, "/api/v1/rooms")
	assert.Equal(t, float64(1), body["total"])

	rooms, ok := body["rooms"].([]any)
	require.True(t, ok)
	require.Len(t, rooms, 1)

	info, ok := rooms[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, room.ID, info["room_id"])
	assert.Equal(t, "waiting", info["status"])
	assert.Equal(t, float64(1), info["current_players"])
	assert.Equal(t, float64(0), info["items"])
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	_, routes := setupHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
