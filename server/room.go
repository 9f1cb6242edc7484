package server

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"marblerail/level"
	"marblerail/rail"
)

// RoomOptions 房间运行参数
type RoomOptions struct {
	TicksPerSecond   int
	BroadcastEvery   int
	MaxInputsPerTick int
	AutoAttach       bool
	Tuning           rail.Tuning
	Level            *level.Level
}

// DefaultRoomOptions 默认参数（内置关卡）
func DefaultRoomOptions() RoomOptions {
	return RoomOptions{
		TicksPerSecond:   60,
		BroadcastEvery:   3,
		MaxInputsPerTick: 8,
		Tuning:           rail.DefaultTuning(),
		Level:            level.Default(),
	}
}

type joinReq struct {
	id    PlayerID
	conn  Conn
	reply chan *Player
}

// leaveReq 绑定到具体连接：旧连接断开不影响已重连的同名玩家
type leaveReq struct {
	id   PlayerID
	conn Conn
}

// Room 房间世界：权威状态维护在内存，单线程 Tick 推进
type Room struct {
	ID string

	Players   map[PlayerID]*Player
	rails     []*rail.Rail
	spawn     mgl64.Vec3
	inputChan chan Input
	leaveChan chan leaveReq
	joinChan  chan joinReq
	tuneChan  chan rail.Tuning

	// 配置：Tick 步长、广播间隔、同帧输入上限
	dt               float64
	broadcastEvery   int
	maxInputsPerTick int
	autoAttach       bool

	tickSeq int64
	events  []rail.Event // 自上次广播以来的滑轨事件
	metrics *RoomMetrics

	// 供 HTTP 协程读取的只读视图
	tuning      atomic.Pointer[rail.Tuning]
	playerCount atomic.Int64
	readyCount  atomic.Int64

	tickerStarted bool
	quit          chan struct{}
	done          chan struct{}
}

// NewRoom 创建房间，初始化数据结构并按关卡构建滑轨
func NewRoom(id string, opts RoomOptions) *Room {
	if opts.TicksPerSecond <= 0 {
		opts.TicksPerSecond = 60
	}
	if opts.BroadcastEvery <= 0 {
		opts.BroadcastEvery = 1
	}
	if opts.MaxInputsPerTick <= 0 {
		opts.MaxInputsPerTick = 8
	}
	if opts.Level == nil {
		opts.Level = level.Default()
	}
	r := &Room{
		ID:               id,
		Players:          make(map[PlayerID]*Player),
		rails:            opts.Level.Build(opts.Tuning, Log.Desugar().With(zapRoom(id))),
		spawn:            opts.Level.SpawnPoint(),
		inputChan:        make(chan Input, 256), // 足够缓冲，避免网络读阻塞影响 Tick
		leaveChan:        make(chan leaveReq, 64),
		joinChan:         make(chan joinReq, 16),
		tuneChan:         make(chan rail.Tuning, 4),
		dt:               1 / float64(opts.TicksPerSecond),
		broadcastEvery:   opts.BroadcastEvery,
		maxInputsPerTick: opts.MaxInputsPerTick,
		autoAttach:       opts.AutoAttach,
		metrics:          &RoomMetrics{},
		quit:             make(chan struct{}),
		done:             make(chan struct{}),
	}
	t := opts.Tuning
	r.tuning.Store(&t)
	return r
}

// Rails 房间内的滑轨
func (r *Room) Rails() []*rail.Rail { return r.rails }

// Tuning 当前滑轨参数（可在任意协程调用）
func (r *Room) Tuning() rail.Tuning { return *r.tuning.Load() }

// NumPlayers / NumReady 可在任意协程调用
func (r *Room) NumPlayers() int { return int(r.playerCount.Load()) }
func (r *Room) NumReady() int   { return int(r.readyCount.Load()) }

// Metrics 房间运行指标
func (r *Room) Metrics() *RoomMetrics { return r.metrics }

// Join 请求在 Tick 线程中加入玩家，返回其弹珠；房间已停止时返回 nil
func (r *Room) Join(id PlayerID, conn Conn) *Player {
	req := joinReq{id: id, conn: conn, reply: make(chan *Player, 1)}
	select {
	case r.joinChan <- req:
	case <-r.quit:
		return nil
	}
	select {
	case p := <-req.reply:
		return p
	case <-r.quit:
		return nil
	}
}

// JoinPlayer 将玩家加入房间；同名玩家重连时替换连接并保留弹珠状态
func (r *Room) JoinPlayer(id PlayerID, conn Conn) *Player {
	if p, ok := r.Players[id]; ok {
		if p.Conn != nil && p.Conn != conn {
			p.Conn.Close()
		}
		p.Conn = conn
		// 新连接的客户端序列号从头开始
		p.lastSeq = 0
		Log.Infow("player reconnected", "room", r.ID, "player", id)
		return p
	}
	p := newPlayer(id, r.spawn, conn)
	r.Players[id] = p
	r.playerCount.Store(int64(len(r.Players)))
	Log.Infow("player joined", "room", r.ID, "player", id)
	return p
}

// LeavePlayer 将玩家移出房间；其滑行会话由滑轨在下一 Tick 丢弃
func (r *Room) LeavePlayer(id PlayerID) {
	if p, ok := r.Players[id]; ok {
		p.removed = true
		if p.Conn != nil {
			p.Conn.Close()
		}
		delete(r.Players, id)
		r.playerCount.Store(int64(len(r.Players)))
		r.refreshReady()
		Log.Infow("player left", "room", r.ID, "player", id)
	}
}

// OnInput 入站输入（不立即改变状态），仅记录意图，等下一次 Tick 处理
func (r *Room) OnInput(in Input) {
	// 不阻塞：输入拥塞时丢弃，保证 Tick 准时
	select {
	case r.inputChan <- in:
	default:
		r.metrics.IncChanFullDiscarded()
		InputsDropped.WithLabelValues(r.ID, "chan_full").Inc()
	}
}

// RequestLeave 请求在 Tick 线程中移除玩家，避免并发改动房间状态。
// conn 为发起离开的连接；玩家已换用新连接时请求被忽略
func (r *Room) RequestLeave(pid PlayerID, conn Conn) {
	// 为保证移除一定生效，这里采用阻塞式写入；房间已停止时直接返回
	select {
	case r.leaveChan <- leaveReq{id: pid, conn: conn}:
	case <-r.quit:
	}
}

// UpdateTuning 请求在 Tick 线程中热更新滑轨参数
func (r *Room) UpdateTuning(t rail.Tuning) error {
	if err := t.Validate(); err != nil {
		return err
	}
	select {
	case r.tuneChan <- t:
	case <-r.quit:
	}
	return nil
}

// BeginTick 重置帧内状态（同帧输入计数）
func (r *Room) BeginTick() {
	r.tickSeq++
	for _, p := range r.Players {
		p.inputsThisTick = 0
	}
}

// ProcessInputs 处理当前帧的所有请求与输入意图（非阻塞 drain）
func (r *Room) ProcessInputs() {
	for {
		select {
		case req := <-r.joinChan:
			req.reply <- r.JoinPlayer(req.id, req.conn)
		case req := <-r.leaveChan:
			if p, ok := r.Players[req.id]; ok && p.Conn == req.conn {
				r.LeavePlayer(req.id)
			}
		case t := <-r.tuneChan:
			r.applyTuning(t)
		case in := <-r.inputChan:
			r.applyInput(in)
		default:
			return
		}
	}
}

func (r *Room) applyInput(in Input) {
	p, ok := r.Players[in.PlayerID]
	if !ok {
		return
	}
	if in.Seq > 0 {
		if in.Seq <= p.lastSeq {
			r.metrics.IncOldSeqIgnored()
			InputsDropped.WithLabelValues(r.ID, "old_seq").Inc()
			return
		}
		p.lastSeq = in.Seq
	}
	if p.inputsThisTick >= r.maxInputsPerTick {
		r.metrics.IncRateLimited()
		InputsDropped.WithLabelValues(r.ID, "rate_limited").Inc()
		return
	}
	p.inputsThisTick++
	r.metrics.IncAccepted()

	switch in.Kind {
	case InputMove:
		p.Steer = in.Move
	case InputBoost:
		p.Boost = in.On
	case InputGrind:
		r.tryGrind(p)
	case InputDetach:
		if p.grinding != nil {
			p.grinding.Detach(p)
		}
	case InputReady:
		p.Ready = in.On
		r.refreshReady()
	}
}

func (r *Room) applyTuning(t rail.Tuning) {
	for _, rl := range r.rails {
		if err := rl.SetTuning(t); err != nil {
			Log.Warnw("tuning rejected", "room", r.ID, "rail", rl.ID(), "err", err)
			return
		}
	}
	r.tuning.Store(&t)
	Log.Infow("grind tuning updated", "room", r.ID, "attach_radius", t.AttachRadius,
		"max_speed", t.MaxSpeed, "boost_max_speed", t.BoostMaxSpeed, "min_grind_time", t.MinGrindTime)
}

// tryGrind 挂到最近的可挂载滑轨；同一时间只在一条滑轨上
func (r *Room) tryGrind(p *Player) bool {
	if p.grinding != nil || !p.Valid() {
		return false
	}
	var best *rail.Rail
	bestDist := math.Inf(1)
	for _, rl := range r.rails {
		if !rl.CanAttach(p) {
			continue
		}
		if d := rl.Distance(p.Pos); d < bestDist {
			best, bestDist = rl, d
		}
	}
	if best == nil {
		return false
	}
	return best.TryAttach(p)
}

// UpdateWorld 推进世界：自由弹珠物理 → 自动挂载 → 滑轨状态机 → 事件
func (r *Room) UpdateWorld() {
	for _, p := range r.sortedPlayers() {
		if p.cooldown > 0 {
			p.cooldown = math.Max(0, p.cooldown-r.dt)
		}
		if p.grinding == nil {
			stepMarble(p, r.dt)
		}
	}
	if r.autoAttach {
		for _, p := range r.sortedPlayers() {
			if p.grinding == nil && p.cooldown == 0 {
				r.tryGrind(p)
			}
		}
	}
	active := 0
	for _, rl := range r.rails {
		rl.Tick(r.dt)
		r.recordEvents(rl.DrainEvents())
		active += rl.Len()
	}
	ActiveGrinds.WithLabelValues(r.ID).Set(float64(active))
}

func (r *Room) recordEvents(events []rail.Event) {
	for _, ev := range events {
		r.metrics.IncGrindEvent(ev.Kind)
		GrindEvents.WithLabelValues(r.ID, string(ev.Kind)).Inc()
		Log.Debugw("grind event", "room", r.ID, "rail", ev.RailID, "player", ev.BodyID,
			"kind", ev.Kind, "session", ev.Session.String(), "exit", ev.Exit)
	}
	r.events = append(r.events, events...)
}

func (r *Room) refreshReady() {
	n := 0
	for _, p := range r.Players {
		if p.Ready {
			n++
		}
	}
	r.readyCount.Store(int64(n))
}

func (r *Room) sortedPlayers() []*Player {
	out := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
