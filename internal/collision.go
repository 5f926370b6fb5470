package internal

// 仲裁引擎：純函數，無隱藏狀態。
// 同樣的兩個矩形永遠得到同樣的相交結果。

// 遊戲內尺寸與數值，沿用原始玩法設定
const (
	MaxHP     = 5 // 血量上限
	InitialHP = 5 // 連線時的初始血量

	PlayerWidth  = 50
	PlayerHeight = 50

	ProjectileWidth  = 15
	ProjectileHeight = 20
	ProjectileSpeed  = 10

	ItemWidth  = 30
	ItemHeight = 30
)

// Intersects 判斷兩個軸對齊矩形是否有正面積的重疊
func Intersects(a, b Rect) bool {
	return a.X < b.X+b.W && b.X < a.X+a.W &&
		a.Y < b.Y+b.H && b.Y < a.Y+a.H
}

// ClampHP 把血量收斂到 [0, MaxHP]，任何增減幅度都不會越界
func ClampHP(hp int) int {
	if hp < 0 {
		return 0
	}
	if hp > MaxHP {
		return MaxHP
	}
	return hp
}

// Advance 依方向向量推進一步：position += direction * speed
func (p Projectile) Advance() Projectile {
	p.X += p.DirectionX * ProjectileSpeed
	p.Y += p.DirectionY * ProjectileSpeed
	return p
}

// Bounds 彈體目前的碰撞矩形
func (p Projectile) Bounds() Rect {
	return Rect{X: p.X, Y: p.Y, W: ProjectileWidth, H: ProjectileHeight}
}

// Bounds 道具的碰撞矩形
func (it ItemState) Bounds() Rect {
	return Rect{X: it.X, Y: it.Y, W: ItemWidth, H: ItemHeight}
}
