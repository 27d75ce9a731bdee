package systems

import (
	"go.uber.org/zap"

	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/utils"
)

const (
	// GrabDuration 抓起时移动到指针位置的时长（秒）
	GrabDuration = 0.5
	// DragDuration 拖动时每次跟随指针的时长（秒）
	DragDuration = 0.1
)

// OrbReleaser 光球被抓起时需要释放槽位的收纳系统
type OrbReleaser interface {
	ReleaseOrb(orb ecs.EntityID) bool
}

// DropListener 接收光球被放下的通知（区域内放下的光球由收纳系统接管）
type DropListener interface {
	OnOrbDropped(orb ecs.EntityID)
}

// ClickListener 接收光球点击事件（投影区用来提前结束会话）
type ClickListener interface {
	OnOrbClicked(orb ecs.EntityID)
}

// InteractionSystem 光球的抓取、拖动、放下、点击与发光
//
// 同一时刻最多抓着一个光球。指针坐标由输入层换算成世界坐标后传入。
type InteractionSystem struct {
	entityManager *ecs.EntityManager
	tweens        *TweenSystem
	releasers     []OrbReleaser
	clickers      []ClickListener
	droppers      []DropListener
	grabbed       ecs.EntityID
	logger        *zap.Logger
}

// NewInteractionSystem 创建交互系统
func NewInteractionSystem(em *ecs.EntityManager, tweens *TweenSystem, logger *zap.Logger) *InteractionSystem {
	return &InteractionSystem{
		entityManager: em,
		tweens:        tweens,
		logger:        namedLogger(logger, "interaction"),
	}
}

// AddReleaser 注册收纳系统
func (s *InteractionSystem) AddReleaser(r OrbReleaser) {
	s.releasers = append(s.releasers, r)
}

// AddClickListener 注册点击监听者
func (s *InteractionSystem) AddClickListener(l ClickListener) {
	s.clickers = append(s.clickers, l)
}

// AddDropListener 注册放下监听者
func (s *InteractionSystem) AddDropListener(l DropListener) {
	s.droppers = append(s.droppers, l)
}

// Grabbed 当前被抓着的光球
func (s *InteractionSystem) Grabbed() ecs.EntityID {
	return s.grabbed
}

// Grab 抓起光球并移动到 grabPoint
//
// 光球脱离货架（Parent 清零并释放槽位），关闭物理，0.5 秒 OutCubic 移动到抓取点，
// 到位后记录与指针的偏移，之后 Drag 按偏移跟随指针。
func (s *InteractionSystem) Grab(orb ecs.EntityID, grabPoint utils.Vec3) bool {
	orbComp, ok := ecs.GetComponent[*components.OrbComponent](s.entityManager, orb)
	if !ok || !orbComp.Active {
		return false
	}
	if s.grabbed != ecs.NoEntity && s.grabbed != orb {
		s.Drop()
	}

	for _, r := range s.releasers {
		r.ReleaseOrb(orb)
	}
	if tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, orb); ok {
		tr.Parent = ecs.NoEntity
	}
	if rb, ok := ecs.GetComponent[*components.RigidBodyComponent](s.entityManager, orb); ok {
		rb.Freeze()
	}

	orbComp.Grabbed = true
	orbComp.GrabSettled = false
	orbComp.Pointer = grabPoint
	orbComp.GrabOffset = utils.Vec3{}
	s.grabbed = orb

	s.tweens.Move(orb, grabPoint, GrabDuration, utils.EaseOutCubic).OnComplete(func() {
		comp, ok := ecs.GetComponent[*components.OrbComponent](s.entityManager, orb)
		if !ok || !comp.Grabbed {
			return
		}
		comp.GrabSettled = true
		if tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, orb); ok {
			comp.GrabOffset = tr.Position.Sub(comp.Pointer)
		}
	})

	s.logger.Debug("orb grabbed", zap.Uint64("orb", uint64(orb)), zap.Stringer("at", grabPoint))
	return true
}

// Drag 更新指针位置；抓取动画结束后光球以 0.1 秒线性动画跟随
func (s *InteractionSystem) Drag(pointer utils.Vec3) {
	if s.grabbed == ecs.NoEntity {
		return
	}
	orbComp, ok := ecs.GetComponent[*components.OrbComponent](s.entityManager, s.grabbed)
	if !ok {
		s.grabbed = ecs.NoEntity
		return
	}
	if !orbComp.Active {
		// 被投影区停用的光球不再跟随指针
		s.Drop()
		return
	}
	orbComp.Pointer = pointer
	if !orbComp.GrabSettled {
		return
	}
	s.tweens.Move(s.grabbed, pointer.Add(orbComp.GrabOffset), DragDuration, utils.EaseLinear)
}

// Drop 放下当前光球并恢复物理
func (s *InteractionSystem) Drop() ecs.EntityID {
	orb := s.grabbed
	if orb == ecs.NoEntity {
		return ecs.NoEntity
	}
	s.grabbed = ecs.NoEntity

	if orbComp, ok := ecs.GetComponent[*components.OrbComponent](s.entityManager, orb); ok {
		orbComp.Grabbed = false
		orbComp.GrabSettled = false
	}
	s.tweens.KillTweensOf(orb, TweenMove)
	if rb, ok := ecs.GetComponent[*components.RigidBodyComponent](s.entityManager, orb); ok {
		rb.Release()
	}

	s.logger.Debug("orb dropped", zap.Uint64("orb", uint64(orb)))
	for _, l := range s.droppers {
		l.OnOrbDropped(orb)
	}
	return orb
}

// Click 派发点击事件
func (s *InteractionSystem) Click(orb ecs.EntityID) {
	if !ecs.HasComponent[*components.OrbComponent](s.entityManager, orb) {
		return
	}
	for _, l := range s.clickers {
		l.OnOrbClicked(orb)
	}
}

// EnableGlow 开启光球发光
func (s *InteractionSystem) EnableGlow(orb ecs.EntityID) {
	if comp, ok := ecs.GetComponent[*components.OrbComponent](s.entityManager, orb); ok {
		comp.Glowing = true
	}
}

// DisableGlow 关闭光球发光
func (s *InteractionSystem) DisableGlow(orb ecs.EntityID) {
	if comp, ok := ecs.GetComponent[*components.OrbComponent](s.entityManager, orb); ok {
		comp.Glowing = false
	}
}

// OrbAt 返回 point 处（在光球碰撞半径内、XY 平面）最前面的光球
//
// 有多个候选时取 Z 最大（离观众最近）的一个，Z 相同取 ID 较小者。
func (s *InteractionSystem) OrbAt(point utils.Vec3, slack float64) (ecs.EntityID, bool) {
	ids := ecs.GetEntitiesWith3[
		*components.OrbComponent,
		*components.TriggerBodyComponent,
		*components.TransformComponent,
	](s.entityManager)

	best := ecs.NoEntity
	bestZ := 0.0
	for _, id := range ids {
		orb, _ := ecs.GetComponent[*components.OrbComponent](s.entityManager, id)
		if !orb.Active {
			continue
		}
		body, _ := ecs.GetComponent[*components.TriggerBodyComponent](s.entityManager, id)
		tr, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
		dx, dy := tr.Position.X-point.X, tr.Position.Y-point.Y
		r := body.Radius*tr.Scale.X + slack
		if dx*dx+dy*dy > r*r {
			continue
		}
		if best == ecs.NoEntity || tr.Position.Z > bestZ {
			best, bestZ = id, tr.Position.Z
		}
	}
	return best, best != ecs.NoEntity
}
