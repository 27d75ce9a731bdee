package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/utils"
)

// step 以固定步长推进补间系统 n 帧
func step(s *TweenSystem, n int, dt float64) {
	for i := 0; i < n; i++ {
		s.Update(dt)
	}
}

func TestFloatTweenReachesTargetAndCompletesOnce(t *testing.T) {
	ts := NewTweenSystem(ecs.NewEntityManager())

	value := 0.0
	completed := 0
	ts.Play(NewFloatTween(0, 10, 1.0, func(v float64) { value = v })).
		OnComplete(func() { completed++ })

	ts.Update(0.5)
	assert.InDelta(t, 5.0, value, 1e-9)
	assert.Equal(t, 0, completed)

	step(ts, 10, 0.1)
	assert.InDelta(t, 10.0, value, 1e-9, "完成时精确落在终点")
	assert.Equal(t, 1, completed, "完成回调只触发一次")
	assert.Equal(t, 0, ts.ActiveCount())
}

func TestTweenCompletesOnFrameReachingDuration(t *testing.T) {
	tests := []struct {
		name  string
		steps int
		dt    float64
	}{
		{"10x0.1", 10, 0.1},
		{"60 帧", 60, 1.0 / 60.0},
		{"3x0.1", 3, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := NewTweenSystem(ecs.NewEntityManager())
			duration := float64(tt.steps) * tt.dt

			value := 0.0
			completed := 0
			ts.Play(NewFloatTween(0, 1, duration, func(v float64) { value = v })).
				OnComplete(func() { completed++ })

			step(ts, tt.steps-1, tt.dt)
			assert.Equal(t, 0, completed, "提前完成")

			ts.Update(tt.dt)
			assert.Equal(t, 1, completed, "累加到时长的那一帧完成")
			assert.Equal(t, 1.0, value)
			assert.Equal(t, 0, ts.ActiveCount())
		})
	}
}

func TestKilledTweenDoesNotComplete(t *testing.T) {
	ts := NewTweenSystem(ecs.NewEntityManager())

	completed := false
	tw := ts.Play(NewFloatTween(0, 1, 1.0, func(float64) {})).OnComplete(func() { completed = true })

	ts.Update(0.3)
	tw.Kill()
	step(ts, 10, 0.1)

	assert.False(t, completed)
	assert.False(t, tw.IsActive())
	assert.False(t, tw.IsComplete())
}

func TestZeroDurationTweenCompletesOnNextUpdate(t *testing.T) {
	ts := NewTweenSystem(ecs.NewEntityManager())

	value := -1.0
	done := false
	ts.Play(NewFloatTween(3, 7, 0, func(v float64) { value = v })).OnComplete(func() { done = true })
	assert.False(t, done, "Play 本身不推进补间")

	ts.Update(0)
	assert.True(t, done)
	assert.Equal(t, 7.0, value)
}

func TestYoyoInfiniteLoopOscillates(t *testing.T) {
	ts := NewTweenSystem(ecs.NewEntityManager())

	value := 0.0
	tw := ts.Play(NewFloatTween(0, 1, 0.5, func(v float64) { value = v })).SetLoops(-1, true)

	ts.Update(0.25)
	assert.InDelta(t, 0.5, value, 1e-9)
	ts.Update(0.25 + 0.125) // 进入第二轮（反向）的 1/4
	assert.InDelta(t, 0.75, value, 1e-9)
	ts.Update(0.375) // 第三轮（正向）起点
	assert.InDelta(t, 0.0, value, 1e-9)

	step(ts, 100, 0.1)
	assert.True(t, tw.IsActive(), "无限循环不会自行结束")
}

func TestFiniteYoyoEndsAtStart(t *testing.T) {
	ts := NewTweenSystem(ecs.NewEntityManager())

	value := 0.0
	tw := ts.Play(NewFloatTween(0, 1, 0.2, func(v float64) { value = v })).SetLoops(2, true)
	step(ts, 10, 0.1)

	assert.True(t, tw.IsComplete())
	assert.Equal(t, 0.0, value, "往返两轮后回到起点")
}

func TestTweensStartedInCallbackRunNextFrame(t *testing.T) {
	ts := NewTweenSystem(ecs.NewEntityManager())

	second := 0.0
	ts.Play(NewFloatTween(0, 1, 0.1, func(float64) {})).OnComplete(func() {
		ts.Play(NewFloatTween(0, 1, 1.0, func(v float64) { second = v }))
	})

	ts.Update(0.1)
	assert.Equal(t, 0.0, second, "回调中启动的补间本帧不推进")
	assert.Equal(t, 1, ts.ActiveCount())

	ts.Update(0.5)
	assert.InDelta(t, 0.5, second, 1e-9)
}

func TestMoveUpdatesTransformAndReplacesPreviousMove(t *testing.T) {
	em := ecs.NewEntityManager()
	ts := NewTweenSystem(em)

	id := em.CreateEntity()
	tr := components.NewTransform(utils.V3(0, 0, 0))
	ecs.AddComponent(em, id, tr)

	firstDone := false
	ts.Move(id, utils.V3(10, 0, 0), 1.0, utils.EaseLinear).OnComplete(func() { firstDone = true })
	ts.Update(0.5)
	require.InDelta(t, 5.0, tr.Position.X, 1e-9)

	// 重新指定目标：旧补间被终止，新补间从当前位置出发
	ts.Move(id, utils.V3(5, 4, 0), 1.0, utils.EaseLinear)
	assert.True(t, ts.IsTweening(id, TweenMove))
	step(ts, 10, 0.1)

	assert.False(t, firstDone, "被替换的位置补间不触发回调")
	assert.InDelta(t, 5.0, tr.Position.X, 1e-9)
	assert.InDelta(t, 4.0, tr.Position.Y, 1e-9)
	assert.False(t, ts.IsTweening(id, TweenMove))
}

func TestMoveOnEntityWithoutTransformStillCompletes(t *testing.T) {
	em := ecs.NewEntityManager()
	ts := NewTweenSystem(em)
	id := em.CreateEntity()

	done := false
	ts.Move(id, utils.V3(1, 1, 1), 1.0, nil).OnComplete(func() { done = true })
	ts.Update(0.016)
	assert.True(t, done)
}

func TestKillTweensOfFiltersByKind(t *testing.T) {
	em := ecs.NewEntityManager()
	ts := NewTweenSystem(em)
	id := em.CreateEntity()
	ecs.AddComponent(em, id, components.NewTransform(utils.Vec3{}))

	ts.Move(id, utils.V3(1, 0, 0), 1, nil)
	ts.ScaleTo(id, utils.V3(2, 2, 2), 1, nil)

	assert.Equal(t, 1, ts.KillTweensOf(id, TweenScale))
	assert.True(t, ts.IsTweening(id, TweenMove))
	assert.False(t, ts.IsTweening(id, TweenScale))
	assert.Equal(t, 1, ts.KillTweensOf(id))
	assert.Equal(t, 0, ts.ActiveCount())
}
