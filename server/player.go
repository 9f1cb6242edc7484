package server

import (
	"github.com/go-gl/mathgl/mgl64"

	"marblerail/rail"
)

// PlayerID 表示玩家唯一标识
type PlayerID string

// PlayerState 为广播给客户端的轻量状态
type PlayerState struct {
	ID    string     `json:"id" msgpack:"id"`
	Pos   mgl64.Vec3 `json:"pos" msgpack:"pos"`
	Vel   mgl64.Vec3 `json:"vel" msgpack:"vel"`
	Roll  float64    `json:"roll" msgpack:"roll"`
	Rail  string     `json:"rail,omitempty" msgpack:"rail,omitempty"`
	Ready bool       `json:"ready" msgpack:"ready"`
}

// Player 房间内的玩家弹珠（服务端权威状态），实现 rail.Grindable
type Player struct {
	id    PlayerID
	Pos   mgl64.Vec3
	Vel   mgl64.Vec3
	Steer mgl64.Vec3 // 水平转向意图 (x, 0, z)，在下一次 Tick 生效
	Boost bool
	Ready bool
	Roll  float64

	grinding *rail.Rail
	cooldown float64 // 离轨后重新自动挂载的冷却（秒）
	removed  bool

	lastSeq        int64
	inputsThisTick int

	Conn Conn // 网络连接的发送端（写协程）
}

func newPlayer(id PlayerID, spawn mgl64.Vec3, conn Conn) *Player {
	return &Player{id: id, Pos: spawn, Conn: conn}
}

func (p *Player) ID() rail.BodyID          { return rail.BodyID(p.id) }
func (p *Player) Valid() bool              { return !p.removed }
func (p *Player) Position() mgl64.Vec3     { return p.Pos }
func (p *Player) SetPosition(v mgl64.Vec3) { p.Pos = v }
func (p *Player) Velocity() mgl64.Vec3     { return p.Vel }
func (p *Player) SetVelocity(v mgl64.Vec3) { p.Vel = v }
func (p *Player) SteerInput() mgl64.Vec3   { return p.Steer }
func (p *Player) Boosting() bool           { return p.Boost }
func (p *Player) SetRollRate(rate float64) { p.Roll = rate }

// Grinding 当前所在滑轨，未滑行时为 nil
func (p *Player) Grinding() *rail.Rail { return p.grinding }

func (p *Player) StartGrinding(r *rail.Rail) {
	p.grinding = r
}

func (p *Player) StopGrinding() {
	p.grinding = nil
	p.cooldown = ReattachCooldown
}

// LaunchFromRail 滑到轨道尽头被抛出
func (p *Player) LaunchFromRail(exit mgl64.Vec3) {
	p.grinding = nil
	p.cooldown = ReattachCooldown
	p.Vel = exit
}

func (p *Player) state() PlayerState {
	s := PlayerState{ID: string(p.id), Pos: p.Pos, Vel: p.Vel, Roll: p.Roll, Ready: p.Ready}
	if p.grinding != nil {
		s.Rail = p.grinding.ID()
	}
	return s
}
