// Package config 负责服务配置：默认值 → YAML 文件 → 命令行参数
package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"marblerail/rail"
)

// Config 服务配置
type Config struct {
	Addr      string `koanf:"addr"`
	LevelFile string `koanf:"level"`

	TicksPerSecond   int    `koanf:"tick_rate"`
	BroadcastEvery   int    `koanf:"broadcast_every"` // 每 N 个 Tick 广播一次
	MaxInputsPerTick int    `koanf:"max_inputs_per_tick"`
	AutoAttach       bool   `koanf:"auto_attach"` // 靠近滑轨即自动挂载
	DefaultRoom      string `koanf:"default_room"`

	Log   LogConfig   `koanf:"log"`
	Grind rail.Tuning `koanf:"grind"`
}

// LogConfig 日志文件与滚动策略
type LogConfig struct {
	File       string `koanf:"file"`
	Level      string `koanf:"level"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

// Default 默认配置
func Default() Config {
	return Config{
		Addr:             ":8080",
		TicksPerSecond:   60,
		BroadcastEvery:   3,
		MaxInputsPerTick: 8,
		DefaultRoom:      "room-1",
		Log: LogConfig{
			File:       "app.log",
			Level:      "debug",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Grind: rail.DefaultTuning(),
	}
}

// BindFlags 注册命令行参数；参数名即配置键
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("addr", d.Addr, "server listen address, e.g. :8080")
	fs.String("level", d.LevelFile, "level YAML file (built-in playground when empty)")
	fs.Int("tick_rate", d.TicksPerSecond, "simulation ticks per second")
	fs.Int("broadcast_every", d.BroadcastEvery, "broadcast a snapshot every N ticks")
	fs.Bool("auto_attach", d.AutoAttach, "attach marbles to nearby rails without a grind action")
	fs.String("log.file", d.Log.File, "log file path")
	fs.String("log.level", d.Log.Level, "log level: debug, info, warn, error")
}

// Load 依次叠加默认值、配置文件（可选）与命令行参数
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.In("config").Code("CONFIG_READ").With("path", path).Wrapf(err, "load config file")
		}
	}
	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return Config{}, oops.In("config").Code("CONFIG_FLAGS").Wrapf(err, "load flags")
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.In("config").Code("CONFIG_INVALID").Wrapf(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 校验配置
func (c Config) Validate() error {
	e := oops.In("config").Code("CONFIG_INVALID")
	switch {
	case c.Addr == "":
		return e.Errorf("addr is required")
	case c.TicksPerSecond <= 0 || c.TicksPerSecond > 240:
		return e.With("tick_rate", c.TicksPerSecond).Errorf("tick rate must be in (0,240]")
	case c.BroadcastEvery <= 0:
		return e.With("broadcast_every", c.BroadcastEvery).Errorf("broadcast_every must be positive")
	case c.MaxInputsPerTick <= 0:
		return e.With("max_inputs_per_tick", c.MaxInputsPerTick).Errorf("max_inputs_per_tick must be positive")
	case c.DefaultRoom == "":
		return e.Errorf("default_room is required")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return e.With("log.level", c.Log.Level).Errorf("unknown log level")
	}
	return c.Grind.Validate()
}
