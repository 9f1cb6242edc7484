package server

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// stepMarble 推进一个未在滑轨上的弹珠：转向加速 → 重力 → 阻尼限速 → 积分 → 地面与边界
func stepMarble(p *Player, dt float64) {
	if mag := p.Steer.Len(); mag > Deadzone {
		accel := MarbleAccel
		if p.Boost {
			accel *= BoostMult
		}
		p.Vel = p.Vel.Add(p.Steer.Mul(accel * dt / mag))
	}
	p.Vel[1] -= Gravity * dt

	h := mgl64.Vec3{p.Vel[0], 0, p.Vel[2]}
	h = h.Mul(1 / (1 + Drag*dt))
	limit := MaxSpeedNormal
	if p.Boost {
		limit = MaxSpeedBoost
	}
	if speed := h.Len(); speed > limit {
		h = h.Mul(limit / speed)
	}
	p.Vel[0], p.Vel[2] = h[0], h[2]

	p.Pos = p.Pos.Add(p.Vel.Mul(dt))
	if p.Pos[1] < MarbleRadius {
		p.Pos[1] = MarbleRadius
		if p.Vel[1] < 0 {
			p.Vel[1] = 0
		}
	}
	for _, i := range []int{0, 2} {
		if math.Abs(p.Pos[i]) > ArenaHalfSize {
			p.Pos[i] = math.Copysign(ArenaHalfSize, p.Pos[i])
			p.Vel[i] = 0
		}
	}
	p.Roll = h.Len() / MarbleRadius
}
