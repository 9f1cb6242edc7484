// Package level 解析关卡文件（YAML），构建场景中的滑轨
package level

import (
	"os"
	"regexp"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/oops"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"marblerail/rail"
)

// Level 关卡文件结构
type Level struct {
	Name  string    `yaml:"name"`
	Spawn []float64 `yaml:"spawn,omitempty"`
	Rails []RailDef `yaml:"rails"`
}

// RailDef 单条滑轨定义
type RailDef struct {
	ID      string      `yaml:"id"`
	Points  [][]float64 `yaml:"points"`
	Smooth  string      `yaml:"smooth,omitempty"`  // "" / "linear" / "bezier"
	Samples int         `yaml:"samples,omitempty"` // 贝塞尔烘焙点数
}

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

const defaultSamples = 32

// Parse 解析并校验关卡数据
func Parse(data []byte) (*Level, error) {
	e := oops.In("level").Code("LEVEL_INVALID")
	if len(data) == 0 {
		return nil, e.Errorf("level data is empty")
	}
	var l Level
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, e.Wrapf(err, "invalid YAML")
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Load 从文件读取关卡
func Load(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.In("level").Code("LEVEL_READ").With("path", path).Wrapf(err, "read level")
	}
	l, err := Parse(data)
	if err != nil {
		return nil, oops.In("level").With("path", path).Wrap(err)
	}
	return l, nil
}

// Validate 检查滑轨 ID 唯一、坐标为三维、至少两个点
func (l *Level) Validate() error {
	e := oops.In("level").Code("LEVEL_INVALID")
	if len(l.Spawn) != 0 && len(l.Spawn) != 3 {
		return e.With("spawn", l.Spawn).Errorf("spawn must have 3 components")
	}
	seen := make(map[string]bool, len(l.Rails))
	for i, d := range l.Rails {
		if !idPattern.MatchString(d.ID) {
			return e.With("index", i).Errorf("rail id %q must match %s", d.ID, idPattern)
		}
		if seen[d.ID] {
			return e.With("rail", d.ID).Errorf("duplicate rail id %q", d.ID)
		}
		seen[d.ID] = true
		if len(d.Points) < 2 {
			return e.With("rail", d.ID).Errorf("rail needs at least 2 points, got %d", len(d.Points))
		}
		for j, p := range d.Points {
			if len(p) != 3 {
				return e.With("rail", d.ID).With("point", j).Errorf("point must have 3 components")
			}
		}
		switch d.Smooth {
		case "", "linear", "bezier":
		default:
			return e.With("rail", d.ID).Errorf("unknown smoothing %q", d.Smooth)
		}
	}
	return nil
}

// SpawnPoint 出生点；未配置时为原点上方
func (l *Level) SpawnPoint() mgl64.Vec3 {
	if len(l.Spawn) == 3 {
		return mgl64.Vec3{l.Spawn[0], l.Spawn[1], l.Spawn[2]}
	}
	return mgl64.Vec3{0, 1, 0}
}

// Curve 烘焙单条滑轨的曲线
func (d RailDef) Curve() *rail.Curve {
	pts := make([]mgl64.Vec3, len(d.Points))
	for i, p := range d.Points {
		pts[i] = mgl64.Vec3{p[0], p[1], p[2]}
	}
	if d.Smooth == "bezier" {
		n := d.Samples
		if n <= 0 {
			n = defaultSamples
		}
		return rail.NewBezierCurve(pts, n)
	}
	return rail.NewCurve(pts)
}

// Build 为关卡中每条滑轨创建 rail.Rail；零长度滑轨会被记录但仍保留（不可挂载）
func (l *Level) Build(t rail.Tuning, log *zap.Logger) []*rail.Rail {
	if log == nil {
		log = zap.NewNop()
	}
	out := make([]*rail.Rail, 0, len(l.Rails))
	for _, d := range l.Rails {
		c := d.Curve()
		if c.Length() == 0 {
			log.Warn("rail has zero length", zap.String("rail", d.ID))
		}
		out = append(out, rail.New(d.ID, c, rail.WithTuning(t), rail.WithLogger(log)))
	}
	return out
}

// Default 内置关卡：一条平直长轨、一条下坡轨、一条贝塞尔弧轨
func Default() *Level {
	return &Level{
		Name:  "playground",
		Spawn: []float64{0, 1, 0},
		Rails: []RailDef{
			{ID: "straight", Points: [][]float64{{-60, 2, 20}, {60, 2, 20}}},
			{ID: "downhill", Points: [][]float64{{-40, 30, -40}, {0, 15, -40}, {40, 2, -40}}},
			{ID: "arc", Smooth: "bezier", Samples: 48, Points: [][]float64{{-50, 3, 60}, {0, 25, 100}, {50, 3, 60}}},
		},
	}
}
