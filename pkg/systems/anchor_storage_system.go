package systems

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/utils"
)

// AnchorMode 单点收纳方式
type AnchorMode string

const (
	// AnchorInstant 进入区域立即吸附到锚点
	AnchorInstant AnchorMode = "instant"
	// AnchorAnimated 移动并旋转到锚点后再吸附
	AnchorAnimated AnchorMode = "animated"
)

// ParseAnchorMode 解析配置中的收纳方式，空字符串为 animated
func ParseAnchorMode(s string) (AnchorMode, error) {
	switch AnchorMode(s) {
	case "", AnchorAnimated:
		return AnchorAnimated, nil
	case AnchorInstant:
		return AnchorInstant, nil
	}
	return "", fmt.Errorf("unknown anchor mode %q", s)
}

// AnchorStorageSystem 单点收纳台：进入区域的光球全部收到同一个锚点
type AnchorStorageSystem struct {
	entityManager *ecs.EntityManager
	tweens        *TweenSystem
	anchor        ecs.EntityID
	mode          AnchorMode
	duration      float64
	logger        *zap.Logger

	moving map[ecs.EntityID]bool
}

// NewAnchorStorageSystem 创建单点收纳系统
//
// anchor 需要有 TransformComponent，否则收纳被跳过。
func NewAnchorStorageSystem(em *ecs.EntityManager, tweens *TweenSystem, anchor ecs.EntityID, mode AnchorMode, duration float64, logger *zap.Logger) *AnchorStorageSystem {
	s := &AnchorStorageSystem{
		entityManager: em,
		tweens:        tweens,
		anchor:        anchor,
		mode:          mode,
		duration:      duration,
		logger:        namedLogger(logger, "anchor-storage"),
		moving:        make(map[ecs.EntityID]bool),
	}
	if !ecs.HasComponent[*components.TransformComponent](em, anchor) {
		s.logger.Error("storage anchor has no transform", zap.Uint64("anchor", uint64(anchor)))
	}
	return s
}

// OnTriggerEnter 光球进入收纳区域
func (s *AnchorStorageSystem) OnTriggerEnter(volume, other ecs.EntityID) {
	s.Store(other)
}

// OnOrbDropped 光球在区域内被放下时收纳
func (s *AnchorStorageSystem) OnOrbDropped(orb ecs.EntityID) {
	if vol, ok := ecs.GetComponent[*components.TriggerVolumeComponent](s.entityManager, s.anchor); ok && vol.Inside[orb] {
		s.Store(orb)
	}
}

// OnTriggerExit 忽略
func (s *AnchorStorageSystem) OnTriggerExit(volume, other ecs.EntityID) {}

// Store 把光球收纳到锚点
func (s *AnchorStorageSystem) Store(orb ecs.EntityID) bool {
	orbComp, ok := ecs.GetComponent[*components.OrbComponent](s.entityManager, orb)
	if !ok || orbComp.Grabbed {
		return false
	}
	anchorTr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, s.anchor)
	if !ok {
		return false
	}
	tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, orb)
	if !ok || tr.Parent == s.anchor || s.moving[orb] {
		return false
	}

	if rb, ok := ecs.GetComponent[*components.RigidBodyComponent](s.entityManager, orb); ok {
		rb.Freeze()
	}

	if s.mode == AnchorInstant {
		s.attach(orb, anchorTr)
		return true
	}

	s.moving[orb] = true
	s.tweens.Move(orb, anchorTr.Position, s.duration, utils.EaseInOutQuad)
	s.tweens.RotateTo(orb, anchorTr.Rotation, s.duration, utils.EaseInOutQuad).OnComplete(func() {
		if !s.moving[orb] {
			return
		}
		delete(s.moving, orb)
		if anchorTr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, s.anchor); ok {
			s.attach(orb, anchorTr)
		}
	})
	return true
}

func (s *AnchorStorageSystem) attach(orb ecs.EntityID, anchorTr *components.TransformComponent) {
	tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, orb)
	if !ok {
		return
	}
	tr.Parent = s.anchor
	tr.Position = anchorTr.Position
	tr.Rotation = anchorTr.Rotation
	s.logger.Info("orb stored", zap.Uint64("orb", uint64(orb)), zap.Uint64("anchor", uint64(s.anchor)))
}

// ReleaseOrb 光球被抓起时脱离锚点
func (s *AnchorStorageSystem) ReleaseOrb(orb ecs.EntityID) bool {
	if s.moving[orb] {
		delete(s.moving, orb)
		s.tweens.KillTweensOf(orb, TweenMove, TweenRotate)
		return true
	}
	tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, orb)
	if !ok || tr.Parent != s.anchor {
		return false
	}
	tr.Parent = ecs.NoEntity
	return true
}

// Stored 挂在锚点下的光球（ID 升序）
func (s *AnchorStorageSystem) Stored() []ecs.EntityID {
	var out []ecs.EntityID
	for _, id := range ecs.GetEntitiesWith2[*components.OrbComponent, *components.TransformComponent](s.entityManager) {
		tr, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
		if tr.Parent == s.anchor {
			out = append(out, id)
		}
	}
	return out
}
