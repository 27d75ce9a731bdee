package systems

import (
	"math"

	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/utils"
)

// TweenKind 补间动画作用的属性，用于按实体+属性终止动画
type TweenKind int

const (
	// TweenCustom 不绑定实体属性的补间（屏幕透明度、灯光强度等）
	TweenCustom TweenKind = iota
	// TweenMove 位置补间
	TweenMove
	// TweenScale 缩放补间
	TweenScale
	// TweenRotate 旋转补间
	TweenRotate
)

// Tween 按帧推进的补间动画
//
// 工作流程：
//  1. 通过 NewFloatTween / NewVec3Tween 或 TweenSystem.Move 等方法创建
//  2. TweenSystem.Play 之后，每次 TweenSystem.Update(dt) 推进 elapsed
//  3. 完成时依次调用 OnComplete 注册的回调；被 Kill 的补间不会触发回调
//
// Loops = -1 表示无限循环；Yoyo 为 true 时奇数轮反向播放。
type Tween struct {
	target   ecs.EntityID
	kind     TweenKind
	duration float64
	elapsed  float64
	ease     utils.EaseFunc
	apply    func(eased float64)

	loops int
	yoyo  bool
	loop  int

	onComplete []func()
	killed     bool
	done       bool
}

func newTween(duration float64, apply func(float64)) *Tween {
	if duration < 0 {
		duration = 0
	}
	return &Tween{
		duration: duration,
		ease:     utils.EaseLinear,
		apply:    apply,
		loops:    1,
	}
}

// NewFloatTween 创建从 from 到 to 的标量补间
func NewFloatTween(from, to, duration float64, set func(float64)) *Tween {
	return newTween(duration, func(e float64) {
		set(utils.Lerp(from, to, e))
	})
}

// NewVec3Tween 创建从 from 到 to 的向量补间
func NewVec3Tween(from, to utils.Vec3, duration float64, set func(utils.Vec3)) *Tween {
	return newTween(duration, func(e float64) {
		set(utils.LerpVec3(from, to, e))
	})
}

// SetEase 设置缓动函数（nil 表示线性）
func (tw *Tween) SetEase(ease utils.EaseFunc) *Tween {
	if ease == nil {
		ease = utils.EaseLinear
	}
	tw.ease = ease
	return tw
}

// SetLoops 设置循环次数，-1 为无限循环
func (tw *Tween) SetLoops(loops int, yoyo bool) *Tween {
	if loops == 0 {
		loops = 1
	}
	tw.loops = loops
	tw.yoyo = yoyo
	return tw
}

// SetTarget 绑定实体与属性，供 KillTweensOf 使用
func (tw *Tween) SetTarget(id ecs.EntityID, kind TweenKind) *Tween {
	tw.target = id
	tw.kind = kind
	return tw
}

// OnComplete 注册完成回调
func (tw *Tween) OnComplete(fn func()) *Tween {
	if fn != nil {
		tw.onComplete = append(tw.onComplete, fn)
	}
	return tw
}

// Kill 立即终止补间，不触发完成回调
func (tw *Tween) Kill() {
	if tw == nil {
		return
	}
	tw.killed = true
}

// IsActive 是否仍在播放
func (tw *Tween) IsActive() bool {
	return tw != nil && !tw.killed && !tw.done
}

// IsComplete 是否正常播放完成
func (tw *Tween) IsComplete() bool {
	return tw != nil && tw.done
}

// Target 绑定的实体
func (tw *Tween) Target() ecs.EntityID {
	return tw.target
}

// Duration 单轮时长（秒）
func (tw *Tween) Duration() float64 {
	return tw.duration
}

// timeEpsilon 帧间隔累加的浮点误差容限
const timeEpsilon = 1e-9

// endProgress 最后一轮结束时的进度（偶数轮 yoyo 回到起点）
func (tw *Tween) endProgress() float64 {
	if tw.yoyo && tw.loops > 0 && tw.loops%2 == 0 {
		return 0
	}
	return 1
}

// advance 推进 dt 秒，刚好完成时返回 true
func (tw *Tween) advance(dt float64) bool {
	if tw.killed || tw.done {
		return false
	}
	if tw.duration <= timeEpsilon {
		tw.apply(tw.ease(tw.endProgress()))
		tw.done = true
		return true
	}

	tw.elapsed += dt
	for tw.elapsed >= tw.duration-timeEpsilon {
		if tw.loops > 0 && tw.loop+1 >= tw.loops {
			tw.elapsed = tw.duration
			tw.apply(tw.ease(tw.endProgress()))
			tw.done = true
			return true
		}
		tw.elapsed = math.Max(tw.elapsed-tw.duration, 0)
		tw.loop++
	}

	p := tw.elapsed / tw.duration
	if tw.yoyo && tw.loop%2 == 1 {
		p = 1 - p
	}
	tw.apply(tw.ease(p))
	return false
}

// TweenSystem 管理所有补间动画
//
// 补间完成是核心逻辑唯一的"挂起点"：货架上架、投影淡入淡出、光球振动都在这里推进。
// Update 期间新加入的补间从下一帧开始推进。
type TweenSystem struct {
	entityManager *ecs.EntityManager
	active        []*Tween
	pending       []*Tween
	updating      bool
}

// NewTweenSystem 创建补间系统
func NewTweenSystem(em *ecs.EntityManager) *TweenSystem {
	return &TweenSystem{
		entityManager: em,
		active:        make([]*Tween, 0),
	}
}

// Play 开始播放补间
func (s *TweenSystem) Play(tw *Tween) *Tween {
	if tw == nil {
		return nil
	}
	if s.updating {
		s.pending = append(s.pending, tw)
	} else {
		s.active = append(s.active, tw)
	}
	return tw
}

// Update 推进所有补间
func (s *TweenSystem) Update(deltaTime float64) {
	s.updating = true
	for _, tw := range s.active {
		if tw.advance(deltaTime) {
			for _, fn := range tw.onComplete {
				fn()
			}
		}
	}
	s.updating = false

	kept := s.active[:0]
	for _, tw := range s.active {
		if tw.IsActive() {
			kept = append(kept, tw)
		}
	}
	for i := len(kept); i < len(s.active); i++ {
		s.active[i] = nil
	}
	s.active = append(kept, s.pending...)
	s.pending = nil
}

// ActiveCount 正在播放的补间数量
func (s *TweenSystem) ActiveCount() int {
	n := 0
	for _, tw := range s.active {
		if tw.IsActive() {
			n++
		}
	}
	for _, tw := range s.pending {
		if tw.IsActive() {
			n++
		}
	}
	return n
}

// IsTweening 实体是否有指定属性的补间在播放
func (s *TweenSystem) IsTweening(id ecs.EntityID, kind TweenKind) bool {
	for _, list := range [][]*Tween{s.active, s.pending} {
		for _, tw := range list {
			if tw.IsActive() && tw.target == id && tw.kind == kind {
				return true
			}
		}
	}
	return false
}

// KillTweensOf 终止实体上指定属性的补间；kinds 为空时终止该实体的全部补间
func (s *TweenSystem) KillTweensOf(id ecs.EntityID, kinds ...TweenKind) int {
	n := 0
	for _, list := range [][]*Tween{s.active, s.pending} {
		for _, tw := range list {
			if !tw.IsActive() || tw.target != id {
				continue
			}
			if len(kinds) > 0 && !containsKind(kinds, tw.kind) {
				continue
			}
			tw.Kill()
			n++
		}
	}
	return n
}

func containsKind(kinds []TweenKind, k TweenKind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// Move 把实体移动到世界坐标 to（会终止该实体上已有的位置补间）
//
// 实体没有 TransformComponent 时返回一个立即完成的空补间，回调照常触发。
func (s *TweenSystem) Move(id ecs.EntityID, to utils.Vec3, duration float64, ease utils.EaseFunc) *Tween {
	s.KillTweensOf(id, TweenMove)

	tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
	if !ok {
		return s.Play(newTween(0, func(float64) {}).SetTarget(id, TweenMove))
	}
	tw := NewVec3Tween(tr.Position, to, duration, func(v utils.Vec3) {
		if cur, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id); ok {
			cur.Position = v
		}
	})
	return s.Play(tw.SetEase(ease).SetTarget(id, TweenMove))
}

// MoveY 只改变实体的 Y 坐标（振动、升降）
func (s *TweenSystem) MoveY(id ecs.EntityID, from, to, duration float64, ease utils.EaseFunc) *Tween {
	s.KillTweensOf(id, TweenMove)

	tw := NewFloatTween(from, to, duration, func(y float64) {
		if cur, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id); ok {
			cur.Position.Y = y
		}
	})
	return s.Play(tw.SetEase(ease).SetTarget(id, TweenMove))
}

// ScaleTo 把实体缩放到 to
func (s *TweenSystem) ScaleTo(id ecs.EntityID, to utils.Vec3, duration float64, ease utils.EaseFunc) *Tween {
	s.KillTweensOf(id, TweenScale)

	tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
	if !ok {
		return s.Play(newTween(0, func(float64) {}).SetTarget(id, TweenScale))
	}
	tw := NewVec3Tween(tr.Scale, to, duration, func(v utils.Vec3) {
		if cur, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id); ok {
			cur.Scale = v
		}
	})
	return s.Play(tw.SetEase(ease).SetTarget(id, TweenScale))
}

// RotateTo 把实体旋转到欧拉角 to
func (s *TweenSystem) RotateTo(id ecs.EntityID, to utils.Vec3, duration float64, ease utils.EaseFunc) *Tween {
	s.KillTweensOf(id, TweenRotate)

	tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
	if !ok {
		return s.Play(newTween(0, func(float64) {}).SetTarget(id, TweenRotate))
	}
	tw := NewVec3Tween(tr.Rotation, to, duration, func(v utils.Vec3) {
		if cur, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id); ok {
			cur.Rotation = v
		}
	})
	return s.Play(tw.SetEase(ease).SetTarget(id, TweenRotate))
}
