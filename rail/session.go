package rail

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/oklog/ulid/v2"
)

// State 物体相对滑轨的状态
type State int

const (
	Detached State = iota
	Attached
	Launched
)

func (s State) String() string {
	switch s {
	case Attached:
		return "attached"
	case Launched:
		return "launched"
	default:
		return "detached"
	}
}

// Session 一次滑行会话，由所属 Rail 独占
type Session struct {
	ID        ulid.ULID
	body      Grindable
	Offset    float64
	Direction float64 // +1 / -1
	Speed     float64
	Boosting  bool
	Elapsed   float64 // 自挂上以来的秒数
}

// SessionView 会话的只读副本，用于快照广播
type SessionView struct {
	SessionID string     `json:"sessionId" msgpack:"sessionId"`
	RailID    string     `json:"railId" msgpack:"railId"`
	BodyID    BodyID     `json:"bodyId" msgpack:"bodyId"`
	Offset    float64    `json:"offset" msgpack:"offset"`
	Direction float64    `json:"direction" msgpack:"direction"`
	Speed     float64    `json:"speed" msgpack:"speed"`
	Boosting  bool       `json:"boosting" msgpack:"boosting"`
	Position  mgl64.Vec3 `json:"position" msgpack:"position"`
}

// EventKind 每 Tick 产生的会话事件类型
type EventKind string

const (
	EventAttach     EventKind = "attach"
	EventDetach     EventKind = "detach"
	EventLaunch     EventKind = "launch"
	EventStale      EventKind = "stale"
	EventDegenerate EventKind = "degenerate"
)

// Event 会话生命周期事件，供上层记录日志与指标
type Event struct {
	Kind    EventKind
	RailID  string
	BodyID  BodyID
	Session ulid.ULID
	Exit    mgl64.Vec3
}
