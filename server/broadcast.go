package server

import (
	"github.com/go-gl/mathgl/mgl64"

	"marblerail/rail"
)

// EventMessage 滑轨事件（客户端据此播放挂轨/发射特效）
type EventMessage struct {
	Kind   string     `json:"kind" msgpack:"kind"`
	Rail   string     `json:"rail" msgpack:"rail"`
	Player string     `json:"player" msgpack:"player"`
	Exit   mgl64.Vec3 `json:"exit" msgpack:"exit"`
}

// StateMessage 下行状态快照
type StateMessage struct {
	Type     string             `json:"type" msgpack:"type"`
	Tick     int64              `json:"tick" msgpack:"tick"`
	Players  []PlayerState      `json:"players" msgpack:"players"`
	Grinds   []rail.SessionView `json:"grinds" msgpack:"grinds"`
	Events   []EventMessage     `json:"events,omitempty" msgpack:"events,omitempty"`
	AllReady bool               `json:"allReady" msgpack:"allReady"`
}

// Snapshot 构建当前世界快照（仅 Tick 线程调用）
func (r *Room) Snapshot() StateMessage {
	msg := StateMessage{
		Type:    "state",
		Tick:    r.tickSeq,
		Players: make([]PlayerState, 0, len(r.Players)),
		Grinds:  []rail.SessionView{},
	}
	for _, p := range r.sortedPlayers() {
		msg.Players = append(msg.Players, p.state())
	}
	for _, rl := range r.rails {
		msg.Grinds = append(msg.Grinds, rl.Sessions()...)
	}
	for _, ev := range r.events {
		msg.Events = append(msg.Events, EventMessage{
			Kind:   string(ev.Kind),
			Rail:   ev.RailID,
			Player: string(ev.BodyID),
			Exit:   ev.Exit,
		})
	}
	msg.AllReady = len(r.Players) > 0 && r.NumReady() == len(r.Players)
	return msg
}

// Broadcast 将当前世界状态广播给所有玩家；每种编码只序列化一次
func (r *Room) Broadcast() {
	msg := r.Snapshot()
	r.events = r.events[:0]
	encoded := make(map[Codec][]byte, 2)
	for _, p := range r.Players {
		if p.Conn == nil {
			continue
		}
		codec := p.Conn.Codec()
		b, ok := encoded[codec]
		if !ok {
			var err error
			if b, err = codec.Encode(msg); err != nil {
				Log.Errorw("encode snapshot", "room", r.ID, "codec", codec, "err", err)
				continue
			}
			encoded[codec] = b
		}
		p.Conn.Enqueue(b)
	}
}

// BroadcastDelta 按广播间隔下发快照
func (r *Room) BroadcastDelta() {
	if r.tickSeq%int64(r.broadcastEvery) != 0 {
		return
	}
	r.Broadcast()
}
