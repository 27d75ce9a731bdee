package systems

import (
	"go.uber.org/zap"

	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/utils"
)

// ShowcaseSystem 展示台：把进入区域的光球拉到观众面前并放大
//
// 同一时刻只处理一个光球，动画进行中进入的光球被忽略。
type ShowcaseSystem struct {
	entityManager *ecs.EntityManager
	tweens        *TweenSystem
	zone          ecs.EntityID
	logger        *zap.Logger

	animating ecs.EntityID
}

// NewShowcaseSystem 创建展示台系统，zone 需要有 ShowcaseComponent
func NewShowcaseSystem(em *ecs.EntityManager, tweens *TweenSystem, zone ecs.EntityID, logger *zap.Logger) *ShowcaseSystem {
	s := &ShowcaseSystem{
		entityManager: em,
		tweens:        tweens,
		zone:          zone,
		logger:        namedLogger(logger, "showcase"),
	}
	if !ecs.HasComponent[*components.ShowcaseComponent](em, zone) {
		s.logger.Error("showcase zone has no ShowcaseComponent", zap.Uint64("zone", uint64(zone)))
	}
	return s
}

// OnTriggerEnter 光球进入展示区域
func (s *ShowcaseSystem) OnTriggerEnter(volume, other ecs.EntityID) {
	s.Show(other)
}

// OnTriggerExit 忽略
func (s *ShowcaseSystem) OnTriggerExit(volume, other ecs.EntityID) {}

// Animating 正在展示动画中的光球
func (s *ShowcaseSystem) Animating() ecs.EntityID {
	return s.animating
}

// TargetPosition 观众面前的目标位置
func TargetPosition(show *components.ShowcaseComponent) utils.Vec3 {
	return show.ViewerPosition.
		Add(show.ViewerForward.Scale(show.TargetOffset.Z)).
		Add(show.ViewerUp.Scale(show.TargetOffset.Y)).
		Add(show.ViewerRight.Scale(show.TargetOffset.X))
}

// Show 开始展示动画（线性插值位置和缩放）
func (s *ShowcaseSystem) Show(orb ecs.EntityID) bool {
	if s.animating != ecs.NoEntity {
		return false
	}
	if !ecs.HasComponent[*components.OrbComponent](s.entityManager, orb) {
		return false
	}
	show, ok := ecs.GetComponent[*components.ShowcaseComponent](s.entityManager, s.zone)
	if !ok {
		return false
	}

	if rb, ok := ecs.GetComponent[*components.RigidBodyComponent](s.entityManager, orb); ok {
		rb.Freeze()
	}

	s.animating = orb
	target := TargetPosition(show)
	s.tweens.ScaleTo(orb, show.TargetScale, show.Duration, utils.EaseLinear)
	s.tweens.Move(orb, target, show.Duration, utils.EaseLinear).OnComplete(func() {
		if s.animating == orb {
			s.animating = ecs.NoEntity
		}
	})

	s.logger.Info("showcasing orb", zap.Uint64("orb", uint64(orb)), zap.Stringer("target", target))
	return true
}

// Update 展示动画被打断（例如光球被抓起）时解除占用
func (s *ShowcaseSystem) Update(deltaTime float64) {
	if s.animating == ecs.NoEntity {
		return
	}
	if !s.tweens.IsTweening(s.animating, TweenMove) {
		s.animating = ecs.NoEntity
	}
}
