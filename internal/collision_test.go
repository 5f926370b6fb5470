package internal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/koopa0/shooting-game/internal"
)

// TestIntersects 軸對齊矩形相交判定
func TestIntersects(t *testing.T) {
	tests := []struct {
		name string
		a    internal.Rect
		b    internal.Rect
		want bool
	}{
		{
			name: "overlapping",
			a:    internal.Rect{X: 0, Y: 0, W: 50, H: 50},
			b:    internal.Rect{X: 25, Y: 25, W: 50, H: 50},
			want: true,
		},
		{
			name: "contained",
			a:    internal.Rect{X: 0, Y: 0, W: 100, H: 100},
			b:    internal.Rect{X: 40, Y: 40, W: 10, H: 10},
			want: true,
		},
		{
			name: "disjoint",
			a:    internal.Rect{X: 0, Y: 0, W: 50, H: 50},
			b:    internal.Rect{X: 200, Y: 200, W: 50, H: 50},
			want: false,
		},
		{
			name: "edge touching is not intersection",
			a:    internal.Rect{X: 0, Y: 0, W: 50, H: 50},
			b:    internal.Rect{X: 50, Y: 0, W: 50, H: 50},
			want: false,
		},
		{
			name: "overlap on x only",
			a:    internal.Rect{X: 0, Y: 0, W: 50, H: 50},
			b:    internal.Rect{X: 25, Y: 100, W: 50, H: 50},
			want: false,
		},
		{
			name: "identical",
			a:    internal.Rect{X: 10, Y: 10, W: 30, H: 30},
			b:    internal.Rect{X: 10, Y: 10, W: 30, H: 30},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, internal.Intersects(tt.a, tt.b))
			// 相交是對稱的
			assert.Equal(t, tt.want, internal.Intersects(tt.b, tt.a))
		})
	}
}

// TestClampHP 夾取是全函數：任何輸入都落在 [0, MaxHP]
func TestClampHP(t *testing.T) {
	tests := []struct {
		name string
		hp   int
		want int
	}{
		{name: "in range", hp: 3, want: 3},
		{name: "zero", hp: 0, want: 0},
		{name: "max", hp: internal.MaxHP, want: internal.MaxHP},
		{name: "below zero", hp: -1, want: 0},
		{name: "far below zero", hp: -1000, want: 0},
		{name: "above max", hp: internal.MaxHP + 1, want: internal.MaxHP},
		{name: "far above max", hp: 1000, want: internal.MaxHP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, internal.ClampHP(tt.hp))
		})
	}
}

// TestProjectile_Advance 彈體依方向向量推進一步
func TestProjectile_Advance(t *testing.T) {
	tests := []struct {
		name  string
		p     internal.Projectile
		wantX int
		wantY int
	}{
		{
			name:  "rightward",
			p:     internal.Projectile{X: 100, Y: 100, DirectionX: 1, DirectionY: 0},
			wantX: 100 + internal.ProjectileSpeed,
			wantY: 100,
		},
		{
			name:  "upward",
			p:     internal.Projectile{X: 100, Y: 100, DirectionX: 0, DirectionY: -1},
			wantX: 100,
			wantY: 100 - internal.ProjectileSpeed,
		},
		{
			name:  "diagonal",
			p:     internal.Projectile{X: 0, Y: 0, DirectionX: 1, DirectionY: 1},
			wantX: internal.ProjectileSpeed,
			wantY: internal.ProjectileSpeed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advanced := tt.p.Advance()
			assert.Equal(t, tt.wantX, advanced.X)
			assert.Equal(t, tt.wantY, advanced.Y)
		})
	}
}

// TestBounds 彈體與道具的碰撞矩形尺寸
func TestBounds(t *testing.T) {
	p := internal.Projectile{X: 10, Y: 20}
	assert.Equal(t, internal.Rect{X: 10, Y: 20, W: internal.ProjectileWidth, H: internal.ProjectileHeight}, p.Bounds())

	it := internal.ItemState{ID: "i", X: 30, Y: 40, Kind: internal.ItemHealth}
	assert.Equal(t, internal.Rect{X: 30, Y: 40, W: internal.ItemWidth, H: internal.ItemHeight}, it.Bounds())
}
