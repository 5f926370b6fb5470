package internal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/shooting-game/internal"
)

// TestMessage_RoundTrip 測試訊息編解碼的完整往返
//
// 「缺席」是有意義的（player 缺席代表移除提示），
// 往返後必須能區分「缺席」與「存在但為零值」。
func TestMessage_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  *internal.StateMessage
	}{
		{
			name: "all optional fields absent",
			msg:  &internal.StateMessage{},
		},
		{
			name: "all fields populated",
			msg: &internal.StateMessage{
				ClientID: "client_001",
				Player:   &internal.Rect{X: 100, Y: 200, W: 50, H: 50},
				Projectiles: []internal.Projectile{
					{X: 10, Y: 20, DirectionX: 1, DirectionY: 0},
					{X: 30, Y: 40, DirectionX: 0, DirectionY: -1, Processed: true},
				},
				Items: []internal.ItemState{
					{ID: "item_a", X: 150, Y: 150, Kind: internal.ItemHealth},
					{ID: "item_b", X: 250, Y: 250, Kind: internal.ItemSpeedUp},
				},
				RoomID:      "room_001",
				PlayerRole:  internal.RolePlayer1,
				HP:          internal.IntPtr(3),
				GameStarted: true,
				GameOver:    true,
				Winner:      true,
				NewItem:     &internal.ItemState{ID: "item_c", X: 300, Y: 300, Kind: internal.ItemSpeedDown},
				ItemRemoved: "item_d",
			},
		},
		{
			name: "zero-valued player rectangle present",
			msg: &internal.StateMessage{
				ClientID: "client_002",
				Player:   &internal.Rect{},
			},
		},
		{
			name: "hp zero present",
			msg: &internal.StateMessage{
				ClientID: "client_003",
				HP:       internal.IntPtr(0),
			},
		},
		{
			name: "removal hint: player absent with identity",
			msg: &internal.StateMessage{
				ClientID:   "client_004",
				RoomID:     "room_002",
				PlayerRole: internal.RolePlayer2,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := internal.EncodeMessage(tt.msg)
			require.NoError(t, err)

			decoded, err := internal.DecodeMessage(data)
			require.NoError(t, err)

			assert.Equal(t, tt.msg, decoded)
		})
	}
}

// TestMessage_AbsentVersusZero 缺席與零值不可混淆
func TestMessage_AbsentVersusZero(t *testing.T) {
	t.Run("player absent stays absent", func(t *testing.T) {
		data, err := internal.EncodeMessage(&internal.StateMessage{ClientID: "c"})
		require.NoError(t, err)

		decoded, err := internal.DecodeMessage(data)
		require.NoError(t, err)
		assert.Nil(t, decoded.Player)
		assert.Nil(t, decoded.HP)
	})

	t.Run("zero player stays present", func(t *testing.T) {
		data, err := internal.EncodeMessage(&internal.StateMessage{
			ClientID: "c",
			Player:   &internal.Rect{},
			HP:       internal.IntPtr(0),
		})
		require.NoError(t, err)

		decoded, err := internal.DecodeMessage(data)
		require.NoError(t, err)
		require.NotNil(t, decoded.Player)
		assert.Equal(t, internal.Rect{}, *decoded.Player)
		require.NotNil(t, decoded.HP)
		assert.Equal(t, 0, *decoded.HP)
	})
}

// TestDecodeMessage_Malformed 畸形輸入必須回報錯誤而不是恐慌
func TestDecodeMessage_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "not json", data: []byte("not-json")},
		{name: "truncated", data: []byte(`{"client_id": "x"`)},
		{name: "wrong field type", data: []byte(`{"hp": "five"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := internal.DecodeMessage(tt.data)
			assert.Error(t, err)
		})
	}
}
