package rail

import "github.com/go-gl/mathgl/mgl64"

// BodyID 被控物体的稳定标识
type BodyID string

// Grindable 可以在滑轨上滑行的物体（通常是玩家弹珠）
type Grindable interface {
	ID() BodyID
	// Valid 为 false 表示物体已移除（断线/销毁），其会话将被直接丢弃
	Valid() bool

	Position() mgl64.Vec3
	SetPosition(p mgl64.Vec3)
	Velocity() mgl64.Vec3
	SetVelocity(v mgl64.Vec3)
	// SteerInput 当前转向输入；零向量表示无输入
	SteerInput() mgl64.Vec3
	Boosting() bool

	StartGrinding(r *Rail)
	StopGrinding()
	LaunchFromRail(exit mgl64.Vec3)
}

// Roller 可选：接收滑行时的滚动视觉速率
type Roller interface {
	SetRollRate(rate float64)
}
