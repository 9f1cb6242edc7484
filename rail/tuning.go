package rail

import "github.com/samber/oops"

// Tuning 滑轨手感参数，单位：世界单位 / 秒
type Tuning struct {
	AttachRadius        float64 `koanf:"attach_radius" json:"attachRadius"`
	StartMargin         float64 `koanf:"start_margin" json:"startMargin"`
	StartMarginFraction float64 `koanf:"start_margin_fraction" json:"startMarginFraction"`

	BaseSpeed        float64 `koanf:"base_speed" json:"baseSpeed"`
	EntrySpeedFactor float64 `koanf:"entry_speed_factor" json:"entrySpeedFactor"`
	MinSpeed         float64 `koanf:"min_speed" json:"minSpeed"`
	MaxSpeed         float64 `koanf:"max_speed" json:"maxSpeed"`
	BoostMaxSpeed    float64 `koanf:"boost_max_speed" json:"boostMaxSpeed"`
	Accel            float64 `koanf:"accel" json:"accel"`
	BoostAccel       float64 `koanf:"boost_accel" json:"boostAccel"`

	SteerDeadzone    float64 `koanf:"steer_deadzone" json:"steerDeadzone"`
	SlopeLookahead   float64 `koanf:"slope_lookahead" json:"slopeLookahead"`
	DownhillAssist   float64 `koanf:"downhill_assist" json:"downhillAssist"`
	UphillResistance float64 `koanf:"uphill_resistance" json:"uphillResistance"`

	MinGrindTime float64 `koanf:"min_grind_time" json:"minGrindTime"` // 秒，防止刚挂上就被弹出
	RideHeight   float64 `koanf:"ride_height" json:"rideHeight"`

	LaunchForwardMultiplier float64 `koanf:"launch_forward_multiplier" json:"launchForwardMultiplier"`
	LaunchUpImpulse         float64 `koanf:"launch_up_impulse" json:"launchUpImpulse"`

	RollPerSpeed    float64 `koanf:"roll_per_speed" json:"rollPerSpeed"`
	BoostRollFactor float64 `koanf:"boost_roll_factor" json:"boostRollFactor"`
}

// DefaultTuning 默认参数
func DefaultTuning() Tuning {
	return Tuning{
		AttachRadius:        25,
		StartMargin:         3,
		StartMarginFraction: 0.1,

		BaseSpeed:        15,
		EntrySpeedFactor: 0.8,
		MinSpeed:         5,
		MaxSpeed:         30,
		BoostMaxSpeed:    45,
		Accel:            8,
		BoostAccel:       20,

		SteerDeadzone:    0.2,
		SlopeLookahead:   2,
		DownhillAssist:   12,
		UphillResistance: 8,

		MinGrindTime: 0.5,
		RideHeight:   0.6,

		LaunchForwardMultiplier: 1.2,
		LaunchUpImpulse:         8,

		RollPerSpeed:    2,
		BoostRollFactor: 1.8,
	}
}

// Validate 检查参数组合是否自洽
func (t Tuning) Validate() error {
	e := oops.In("rail").Code("TUNING_INVALID")
	switch {
	case t.AttachRadius <= 0:
		return e.With("attach_radius", t.AttachRadius).Errorf("attach radius must be positive")
	case t.StartMargin < 0 || t.StartMarginFraction < 0 || t.StartMarginFraction >= 0.5:
		return e.With("start_margin", t.StartMargin).
			With("start_margin_fraction", t.StartMarginFraction).
			Errorf("start margin must be non-negative and fraction below 0.5")
	case t.MinSpeed < 0:
		return e.With("min_speed", t.MinSpeed).Errorf("min speed must not be negative")
	case t.MaxSpeed < t.MinSpeed:
		return e.With("min_speed", t.MinSpeed).With("max_speed", t.MaxSpeed).
			Errorf("max speed below min speed")
	case t.BoostMaxSpeed < t.MaxSpeed:
		return e.With("max_speed", t.MaxSpeed).With("boost_max_speed", t.BoostMaxSpeed).
			Errorf("boost max speed below max speed")
	case t.SteerDeadzone < 0 || t.SteerDeadzone >= 1:
		return e.With("steer_deadzone", t.SteerDeadzone).Errorf("steer deadzone must be in [0,1)")
	case t.MinGrindTime < 0:
		return e.With("min_grind_time", t.MinGrindTime).Errorf("min grind time must not be negative")
	}
	return nil
}

// margin 起止保护距离：min(StartMargin, L*StartMarginFraction)
func (t Tuning) margin(length float64) float64 {
	m := length * t.StartMarginFraction
	if t.StartMargin < m {
		m = t.StartMargin
	}
	return m
}

// ceiling 当前可达的最高速度
func (t Tuning) ceiling(boosting bool) float64 {
	if boosting {
		return t.BoostMaxSpeed
	}
	return t.MaxSpeed
}
