package rail

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Tick 推进本滑轨上的全部会话 dt 秒
func (r *Rail) Tick(dt float64) {
	length := r.Length()
	if length <= 0 {
		r.dropDegenerate()
		return
	}
	for id, s := range r.sessions {
		if !s.body.Valid() {
			r.Drop(id)
			continue
		}
		r.step(s, length, dt)
		if r.reachedEnd(s, length) {
			r.launch(id, s)
			continue
		}
		r.apply(s, length)
	}
}

// step 转向 → 坡度 → 加速与限速 → 前进
func (r *Rail) step(s *Session, length, dt float64) {
	t := r.tuning
	tan := r.curve.TangentAt(s.Offset)

	if steer := s.body.SteerInput(); steer.Len() > 1e-6 {
		d := steer.Normalize().Dot(tan)
		if d > t.SteerDeadzone {
			s.Direction = 1
		} else if d < -t.SteerDeadzone {
			s.Direction = -1
		}
	}

	ahead := mgl64.Clamp(s.Offset+s.Direction*t.SlopeLookahead, 0, length)
	drop := r.curve.PositionAt(s.Offset).Y() - r.curve.PositionAt(ahead).Y()
	if drop > 0 {
		s.Speed += drop * t.DownhillAssist * dt
	} else {
		s.Speed += drop * t.UphillResistance * dt
	}

	s.Boosting = s.body.Boosting()
	ceil := t.ceiling(s.Boosting)
	accel := t.Accel
	if s.Boosting {
		accel += t.BoostAccel
	}
	if s.Speed < ceil {
		s.Speed = math.Min(s.Speed+accel*dt, ceil)
	}
	s.Speed = mgl64.Clamp(s.Speed, t.MinSpeed, ceil)

	s.Offset += s.Direction * s.Speed * dt
	s.Elapsed += dt
}

// reachedEnd 到达任一端保护区且已滑满最短时间
func (r *Rail) reachedEnd(s *Session, length float64) bool {
	if s.Elapsed < r.tuning.MinGrindTime {
		return false
	}
	m := r.tuning.margin(length)
	return s.Offset <= m || s.Offset >= length-m
}

// apply 将会话状态写回物体
func (r *Rail) apply(s *Session, length float64) {
	t := r.tuning
	s.Offset = mgl64.Clamp(s.Offset, 0, length)
	tan := r.curve.TangentAt(s.Offset)
	s.body.SetPosition(r.curve.PositionAt(s.Offset).Add(up.Mul(t.RideHeight)))
	s.body.SetVelocity(tan.Mul(s.Direction * s.Speed))
	if roller, ok := s.body.(Roller); ok {
		rate := s.Speed * t.RollPerSpeed * s.Direction
		if s.Boosting {
			rate *= t.BoostRollFactor
		}
		roller.SetRollRate(rate)
	}
}

func (r *Rail) dropDegenerate() {
	if len(r.sessions) == 0 {
		return
	}
	for id, s := range r.sessions {
		delete(r.sessions, id)
		r.emit(EventDegenerate, id, s, mgl64.Vec3{})
		if s.body.Valid() {
			s.body.StopGrinding()
		}
	}
	r.log.Warn("degenerate rail, sessions force-detached")
}
