package rail

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// exitVelocity 主动离轨速度：当前切线 * 方向 * 速度
func (r *Rail) exitVelocity(s *Session) mgl64.Vec3 {
	offset := mgl64.Clamp(s.Offset, 0, r.Length())
	return r.curve.TangentAt(offset).Mul(s.Direction * s.Speed)
}

// launchVelocity 滑到尽头的发射速度：前向放大并叠加向上冲量，形成抛物线
func (r *Rail) launchVelocity(s *Session) mgl64.Vec3 {
	return r.exitVelocity(s).Mul(r.tuning.LaunchForwardMultiplier).Add(up.Mul(r.tuning.LaunchUpImpulse))
}

func (r *Rail) launch(id BodyID, s *Session) {
	delete(r.sessions, id)
	s.Offset = mgl64.Clamp(s.Offset, 0, r.Length())
	exit := r.launchVelocity(s)
	r.emit(EventLaunch, id, s, exit)
	r.log.Debug("grind launch",
		zap.String("body", string(id)),
		zap.Stringer("session", s.ID),
		zap.Float64("elapsed", s.Elapsed),
		zap.Float64s("exit", exit[:]))
	s.body.LaunchFromRail(exit)
}
