package server

import "time"

// StartTicker 启动房间的 Tick 循环（单线程推进世界）
func (r *Room) StartTicker() {
	if r.tickerStarted {
		return
	}
	r.tickerStarted = true
	interval := time.Duration(r.dt * float64(time.Second))
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.quit:
				return
			case <-ticker.C:
				r.Step()
			}
		}
	}()
}

// Step 执行一个完整 Tick：处理输入 → 更新世界 → 广播结果
func (r *Room) Step() {
	start := time.Now()
	r.BeginTick() // 同一 Tick 时间线：重置输入计数等帧内状态
	r.ProcessInputs()
	r.UpdateWorld()
	r.BroadcastDelta()
	elapsed := time.Since(start)
	r.metrics.AddTick(elapsed.Nanoseconds())
	TickDuration.WithLabelValues(r.ID).Observe(elapsed.Seconds())
}

// Stop 停止 Tick 循环并断开所有玩家
func (r *Room) Stop() {
	select {
	case <-r.quit:
		return
	default:
	}
	close(r.quit)
	if r.tickerStarted {
		<-r.done
	}
	for id := range r.Players {
		r.LeavePlayer(id)
	}
}
