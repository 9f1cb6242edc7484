package server

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// InputKind 输入意图类型
type InputKind int

const (
	InputMove InputKind = iota
	InputBoost
	InputGrind
	InputDetach
	InputReady
)

// Input 客户端输入（意图），由服务端在 Tick 中解释并驱动世界状态
type Input struct {
	PlayerID PlayerID
	Kind     InputKind
	Move     mgl64.Vec3 // InputMove：水平方向 (x, 0, z)
	On       bool       // InputBoost / InputReady
	Seq      int64      // 客户端本地序列号，用于去重与确认
}

// 入站输入的简单 JSON 结构（WebSocket 文本消息）
// 示例：{"type":"move","x":0.5,"z":-1,"seq":12}
//
//	{"type":"boost","on":true} {"type":"grind"} {"type":"detach"} {"type":"ready","on":true}
type InputMessage struct {
	Type string  `json:"type"`
	X    float64 `json:"x,omitempty"`
	Z    float64 `json:"z,omitempty"`
	On   bool    `json:"on,omitempty"`
	Seq  int64   `json:"seq,omitempty"`
}

// ToInput 转换为房间输入；未知类型返回 false
func (m InputMessage) ToInput(pid PlayerID) (Input, bool) {
	in := Input{PlayerID: pid, Seq: m.Seq, On: m.On}
	switch strings.ToLower(m.Type) {
	case "move":
		in.Kind = InputMove
		in.Move = mgl64.Vec3{m.X, 0, m.Z}
		// 限制为单位长度以内
		if l := in.Move.Len(); l > 1 {
			in.Move = in.Move.Mul(1 / l)
		}
	case "boost":
		in.Kind = InputBoost
	case "grind":
		in.Kind = InputGrind
	case "detach", "jump":
		in.Kind = InputDetach
	case "ready":
		in.Kind = InputReady
	default:
		return Input{}, false
	}
	return in, true
}
