package server

// 自由运动（未在滑轨上）的弹珠参数，单位：世界单位 / 秒
const (
	ArenaHalfSize    = 150.0
	MarbleRadius     = 0.5
	Deadzone         = 0.08
	MarbleAccel      = 40.0
	BoostMult        = 2.0 // 加速 = 基础加速 × 倍率
	Drag             = 1.5 // 水平阻尼系数
	MaxSpeedNormal   = 20.0
	MaxSpeedBoost    = 32.0
	Gravity          = 30.0
	ReattachCooldown = 0.75 // 离轨后多久才能再次自动挂载
)
