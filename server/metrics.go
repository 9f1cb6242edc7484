package server

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"marblerail/rail"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	TickCount         int64 // 统计的 Tick 次数
	InputsAccepted    int64 // 被接受的输入数
	RateLimited       int64 // 因同帧限流被拒绝的输入数
	OldSeqIgnored     int64 // 因旧序列被忽略的输入数
	ChanFullDiscarded int64 // 因通道满被丢弃的输入数
	TotalTickNs       int64 // Tick 累计耗时（纳秒）

	GrindAttaches int64
	GrindDetaches int64
	GrindLaunches int64
	GrindDropped  int64 // 物体失效或滑轨退化导致的直接丢弃
}

func (m *RoomMetrics) IncAccepted()          { atomic.AddInt64(&m.InputsAccepted, 1) }
func (m *RoomMetrics) IncRateLimited()       { atomic.AddInt64(&m.RateLimited, 1) }
func (m *RoomMetrics) IncOldSeqIgnored()     { atomic.AddInt64(&m.OldSeqIgnored, 1) }
func (m *RoomMetrics) IncChanFullDiscarded() { atomic.AddInt64(&m.ChanFullDiscarded, 1) }
func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// IncGrindEvent 按滑轨事件类型计数
func (m *RoomMetrics) IncGrindEvent(kind rail.EventKind) {
	switch kind {
	case rail.EventAttach:
		atomic.AddInt64(&m.GrindAttaches, 1)
	case rail.EventDetach:
		atomic.AddInt64(&m.GrindDetaches, 1)
	case rail.EventLaunch:
		atomic.AddInt64(&m.GrindLaunches, 1)
	default:
		atomic.AddInt64(&m.GrindDropped, 1)
	}
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":          tick,
		"inputs_accepted":     atomic.LoadInt64(&m.InputsAccepted),
		"rate_limited":        atomic.LoadInt64(&m.RateLimited),
		"old_seq_ignored":     atomic.LoadInt64(&m.OldSeqIgnored),
		"chan_full_discarded": atomic.LoadInt64(&m.ChanFullDiscarded),
		"grind_attaches":      atomic.LoadInt64(&m.GrindAttaches),
		"grind_detaches":      atomic.LoadInt64(&m.GrindDetaches),
		"grind_launches":      atomic.LoadInt64(&m.GrindLaunches),
		"grind_dropped":       atomic.LoadInt64(&m.GrindDropped),
		"avg_tick_ms":         avgMs,
	}
}

// Prometheus 指标；由 RegisterMetrics 注册到指定 registry
var (
	GrindEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marblerail_grind_events_total",
			Help: "Rail grind session events by kind",
		},
		[]string{"room", "kind"},
	)
	ActiveGrinds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marblerail_grind_active_sessions",
			Help: "Grind sessions active after the last tick",
		},
		[]string{"room"},
	)
	InputsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marblerail_inputs_dropped_total",
			Help: "Client inputs dropped before reaching the simulation",
		},
		[]string{"room", "reason"},
	)
	TickDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marblerail_tick_duration_seconds",
			Help:    "Room tick duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		},
		[]string{"room"},
	)
)

// RegisterMetrics 注册本包的 Prometheus 指标（重复注册会 panic）
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(GrindEvents, ActiveGrinds, InputsDropped, TickDuration)
}
