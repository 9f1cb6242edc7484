package rail

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Curve 烘焙后的三维折线：按弧长采样位置与切线（会话期间不可变）
type Curve struct {
	points []mgl64.Vec3
	cum    []float64 // cum[i] 为起点到 points[i] 的弧长
}

// NewCurve 由控制点构造折线；重复相邻点会被合并
func NewCurve(points []mgl64.Vec3) *Curve {
	c := &Curve{}
	for _, p := range points {
		if n := len(c.points); n > 0 && p.ApproxEqual(c.points[n-1]) {
			continue
		}
		if n := len(c.points); n > 0 {
			c.cum = append(c.cum, c.cum[n-1]+p.Sub(c.points[n-1]).Len())
		} else {
			c.cum = append(c.cum, 0)
		}
		c.points = append(c.points, p)
	}
	return c
}

// NewBezierCurve 以控制点生成贝塞尔曲线，再按 samples 个点烘焙成折线
func NewBezierCurve(control []mgl64.Vec3, samples int) *Curve {
	if len(control) < 3 || samples < 2 {
		return NewCurve(control)
	}
	return NewCurve(mgl64.MakeBezierCurve3D(samples, control))
}

// Length 曲线总弧长；少于两个点时为 0
func (c *Curve) Length() float64 {
	if len(c.cum) == 0 {
		return 0
	}
	return c.cum[len(c.cum)-1]
}

// Points 返回烘焙点副本
func (c *Curve) Points() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(c.points))
	copy(out, c.points)
	return out
}

// segment 返回 offset 所在线段下标及段内比例
func (c *Curve) segment(offset float64) (int, float64) {
	offset = mgl64.Clamp(offset, 0, c.Length())
	i := sort.SearchFloat64s(c.cum, offset)
	if i == 0 {
		i = 1
	}
	if i >= len(c.cum) {
		i = len(c.cum) - 1
	}
	segLen := c.cum[i] - c.cum[i-1]
	if segLen <= 0 {
		return i - 1, 0
	}
	return i - 1, (offset - c.cum[i-1]) / segLen
}

// PositionAt 返回弧长 offset 处的世界坐标（越界自动夹紧）
func (c *Curve) PositionAt(offset float64) mgl64.Vec3 {
	switch len(c.points) {
	case 0:
		return mgl64.Vec3{}
	case 1:
		return c.points[0]
	}
	i, t := c.segment(offset)
	a, b := c.points[i], c.points[i+1]
	return a.Add(b.Sub(a).Mul(t))
}

// TangentAt 返回 offset 处的单位切线；退化时返回 +X
func (c *Curve) TangentAt(offset float64) mgl64.Vec3 {
	if len(c.points) < 2 {
		return mgl64.Vec3{1, 0, 0}
	}
	i, _ := c.segment(offset)
	d := c.points[i+1].Sub(c.points[i])
	return unitOr(d, mgl64.Vec3{1, 0, 0})
}

// ClosestOffset 将点 p 投影到曲线上，返回最近点的弧长
func (c *Curve) ClosestOffset(p mgl64.Vec3) float64 {
	if len(c.points) < 2 {
		return 0
	}
	best, bestDist := 0.0, -1.0
	for i := 0; i+1 < len(c.points); i++ {
		a, b := c.points[i], c.points[i+1]
		ab := b.Sub(a)
		segLen2 := ab.Dot(ab)
		t := 0.0
		if segLen2 > 0 {
			t = mgl64.Clamp(p.Sub(a).Dot(ab)/segLen2, 0, 1)
		}
		d := p.Sub(a.Add(ab.Mul(t))).Len()
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = c.cum[i] + t*(c.cum[i+1]-c.cum[i])
		}
	}
	return best
}

func unitOr(v, fallback mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < 1e-9 {
		return fallback
	}
	return v.Mul(1 / l)
}
