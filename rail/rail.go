// Package rail 实现弹珠的滑轨滑行：挂载判定、逐 Tick 状态机与离轨发射。
//
// Rail 不加锁：同一条滑轨的 TryAttach / Detach / Tick 必须由同一个 goroutine
// （房间的 Tick 循环）串行调用。
package rail

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

var up = mgl64.Vec3{0, 1, 0}

// Rail 一条滑轨及其上的全部滑行会话
type Rail struct {
	id       string
	curve    *Curve
	tuning   Tuning
	sessions map[BodyID]*Session
	events   []Event
	log      *zap.Logger
}

// Option 构造参数
type Option func(*Rail)

// WithLogger 设置日志；默认不输出
func WithLogger(l *zap.Logger) Option {
	return func(r *Rail) {
		if l != nil {
			r.log = l
		}
	}
}

// WithTuning 使用自定义参数替代 DefaultTuning；参数无效时 New 回退到默认值
func WithTuning(t Tuning) Option {
	return func(r *Rail) { r.tuning = t }
}

// New 创建滑轨
func New(id string, c *Curve, opts ...Option) *Rail {
	r := &Rail{
		id:       id,
		curve:    c,
		tuning:   DefaultTuning(),
		sessions: make(map[BodyID]*Session),
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.With(zap.String("rail", id))
	if err := r.tuning.Validate(); err != nil {
		r.log.Warn("invalid tuning, using defaults", zap.Error(err))
		r.tuning = DefaultTuning()
	}
	return r
}

func (r *Rail) ID() string      { return r.id }
func (r *Rail) Curve() *Curve   { return r.curve }
func (r *Rail) Tuning() Tuning  { return r.tuning }
func (r *Rail) Len() int        { return len(r.sessions) }
func (r *Rail) Length() float64 { return r.curve.Length() }

// SetTuning 热更新参数，对已有会话下一 Tick 生效
func (r *Rail) SetTuning(t Tuning) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.tuning = t
	return nil
}

// Distance 物体到滑轨最近点的距离
func (r *Rail) Distance(p mgl64.Vec3) float64 {
	return p.Sub(r.curve.PositionAt(r.curve.ClosestOffset(p))).Len()
}

// CanAttach 纯查询：物体是否可以挂上本滑轨
func (r *Rail) CanAttach(body Grindable) bool {
	if body == nil || !body.Valid() || r.Length() <= 0 {
		return false
	}
	if _, ok := r.sessions[body.ID()]; ok {
		return false
	}
	return r.Distance(body.Position()) <= r.tuning.AttachRadius
}

// TryAttach 满足条件时创建会话并通知物体；失败时无任何状态变化
func (r *Rail) TryAttach(body Grindable) bool {
	if !r.CanAttach(body) {
		return false
	}
	t := r.tuning
	length := r.Length()
	m := t.margin(length)
	offset := mgl64.Clamp(r.curve.ClosestOffset(body.Position()), m, length-m)

	tan := r.curve.TangentAt(offset)
	dir := 1.0
	if body.Velocity().Dot(tan) < 0 {
		dir = -1
	}
	speed := math.Max(t.BaseSpeed, body.Velocity().Len()*t.EntrySpeedFactor)
	speed = mgl64.Clamp(speed, t.MinSpeed, t.ceiling(body.Boosting()))

	s := &Session{
		ID:        ulid.Make(),
		body:      body,
		Offset:    offset,
		Direction: dir,
		Speed:     speed,
		Boosting:  body.Boosting(),
	}
	r.sessions[body.ID()] = s
	r.emit(EventAttach, body.ID(), s, mgl64.Vec3{})
	r.log.Debug("grind start",
		zap.String("body", string(body.ID())),
		zap.Stringer("session", s.ID),
		zap.Float64("offset", offset),
		zap.Float64("dir", dir),
		zap.Float64("speed", speed))
	body.StartGrinding(r)
	return true
}

// Detach 主动离轨：返回沿切线的离轨速度（无发射加成）；无会话时返回零向量。
// 物体已失效时按 Drop 处理，不计算离轨速度
func (r *Rail) Detach(body Grindable) mgl64.Vec3 {
	if body == nil {
		return mgl64.Vec3{}
	}
	s, ok := r.sessions[body.ID()]
	if !ok {
		return mgl64.Vec3{}
	}
	if !body.Valid() {
		r.Drop(body.ID())
		return mgl64.Vec3{}
	}
	delete(r.sessions, body.ID())
	exit := r.exitVelocity(s)
	r.emit(EventDetach, body.ID(), s, exit)
	body.SetVelocity(exit)
	body.StopGrinding()
	return exit
}

// Drop 丢弃会话，不计算离轨速度也不回调物体（物体已失效时使用）
func (r *Rail) Drop(id BodyID) {
	if s, ok := r.sessions[id]; ok {
		delete(r.sessions, id)
		r.emit(EventStale, id, s, mgl64.Vec3{})
	}
}

// State 物体在本滑轨上的状态
func (r *Rail) State(id BodyID) State {
	if _, ok := r.sessions[id]; ok {
		return Attached
	}
	return Detached
}

// Session 返回会话只读副本
func (r *Rail) Session(id BodyID) (SessionView, bool) {
	s, ok := r.sessions[id]
	if !ok {
		return SessionView{}, false
	}
	return r.view(id, s), true
}

// Sessions 全部会话快照，按 BodyID 排序
func (r *Rail) Sessions() []SessionView {
	out := make([]SessionView, 0, len(r.sessions))
	for id, s := range r.sessions {
		out = append(out, r.view(id, s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BodyID < out[j].BodyID })
	return out
}

// DrainEvents 取出并清空累积事件
func (r *Rail) DrainEvents() []Event {
	ev := r.events
	r.events = nil
	return ev
}

func (r *Rail) view(id BodyID, s *Session) SessionView {
	return SessionView{
		SessionID: s.ID.String(),
		RailID:    r.id,
		BodyID:    id,
		Offset:    s.Offset,
		Direction: s.Direction,
		Speed:     s.Speed,
		Boosting:  s.Boosting,
		Position:  r.curve.PositionAt(s.Offset),
	}
}

func (r *Rail) emit(kind EventKind, id BodyID, s *Session, exit mgl64.Vec3) {
	r.events = append(r.events, Event{Kind: kind, RailID: r.id, BodyID: id, Session: s.ID, Exit: exit})
}
