package shelf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decker502/orbgallery/pkg/utils"
)

func TestNewCurveSamplesResolutionPlusOne(t *testing.T) {
	points := []utils.Vec3{utils.V3(-2, 1, 0), utils.V3(0, 1, 1.5), utils.V3(2, 1, 0)}

	c, err := NewCurve("top", points, 4)
	require.NoError(t, err)
	require.Equal(t, 5, c.Len())

	pos := c.Positions()
	assert.Equal(t, points[0], pos[0], "第一个槽位是曲线起点")
	assert.Equal(t, points[2], pos[4], "最后一个槽位是曲线终点")
	assert.InDelta(t, 0.75, pos[2].Z, 1e-9, "t=0.5 处 Z = 2*0.25*1.5")
}

func TestNewCurveDefaultResolution(t *testing.T) {
	points := []utils.Vec3{utils.V3(0, 0, 0), utils.V3(1, 0, 1), utils.V3(2, 0, 0)}
	c, err := NewCurve("default", points, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultResolution, c.Resolution())
	assert.Equal(t, DefaultResolution+1, c.Len())
}

func TestNewCurveTooFewControlPoints(t *testing.T) {
	_, err := NewCurve("broken", []utils.Vec3{utils.V3(0, 0, 0), utils.V3(1, 0, 0)}, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooFewControlPoints))
}

func TestPositionsReturnsCopy(t *testing.T) {
	points := []utils.Vec3{utils.V3(0, 0, 0), utils.V3(1, 0, 1), utils.V3(2, 0, 0)}
	c, err := NewCurve("copy", points, 2)
	require.NoError(t, err)

	pos := c.Positions()
	pos[0] = utils.V3(99, 99, 99)
	assert.Equal(t, points[0], c.Positions()[0], "槽位坐标创建后不可修改")
}
