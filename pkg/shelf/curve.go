// Package shelf 实现弧形货架的槽位几何与槽位分配策略
//
// 一个货架由三点二次贝塞尔曲线描述，创建时一次性采样出固定的槽位坐标；
// 运行期间只有槽位的占用状态会变化，坐标与顺序永不改变。
package shelf

import (
	"errors"
	"fmt"

	"github.com/decker502/orbgallery/pkg/utils"
)

// DefaultResolution 默认采样段数（生成 resolution+1 个槽位）
const DefaultResolution = 50

// ErrTooFewControlPoints 贝塞尔曲线至少需要 3 个控制点
var ErrTooFewControlPoints = errors.New("quadratic bezier needs at least 3 control points")

// Curve 货架曲线
type Curve struct {
	Name          string
	controlPoints [3]utils.Vec3
	resolution    int
	positions     []utils.Vec3
}

// NewCurve 根据控制点生成货架曲线
//
// 只使用前三个控制点（起点、控制点、终点），在 t = i/resolution（i = 0..resolution）
// 处采样，共 resolution+1 个位置。resolution <= 0 时使用 DefaultResolution。
func NewCurve(name string, controlPoints []utils.Vec3, resolution int) (*Curve, error) {
	if len(controlPoints) < 3 {
		return nil, fmt.Errorf("shelf %q: %w (got %d)", name, ErrTooFewControlPoints, len(controlPoints))
	}
	if resolution <= 0 {
		resolution = DefaultResolution
	}

	c := &Curve{
		Name:       name,
		resolution: resolution,
	}
	copy(c.controlPoints[:], controlPoints[:3])

	p0, p1, p2 := c.controlPoints[0], c.controlPoints[1], c.controlPoints[2]
	c.positions = make([]utils.Vec3, 0, resolution+1)
	for i := 0; i <= resolution; i++ {
		t := float64(i) / float64(resolution)
		c.positions = append(c.positions, utils.QuadraticBezier(t, p0, p1, p2))
	}
	return c, nil
}

// Resolution 采样段数
func (c *Curve) Resolution() int {
	return c.resolution
}

// Len 槽位数量
func (c *Curve) Len() int {
	return len(c.positions)
}

// Positions 返回采样位置的副本
func (c *Curve) Positions() []utils.Vec3 {
	out := make([]utils.Vec3, len(c.positions))
	copy(out, c.positions)
	return out
}
