package systems

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/utils"
)

// TriggerListener 接收触发区域的进入/离开事件
//
// volume 是触发区域实体，other 是光球实体。
type TriggerListener interface {
	OnTriggerEnter(volume, other ecs.EntityID)
	OnTriggerExit(volume, other ecs.EntityID)
}

// TriggerSystem 每帧计算触发区域与光球的重叠关系，并派发进入/离开事件
//
// 只有同时拥有 OrbComponent（且 Active）、TriggerBodyComponent、TransformComponent
// 的实体会被检测，相当于碰撞回调里的 "Orb" 标签检查。
// 事件按 (区域ID, 光球ID) 升序派发，保证同一帧多个光球进入时的顺序确定。
type TriggerSystem struct {
	entityManager *ecs.EntityManager
	listeners     map[ecs.EntityID][]TriggerListener
	logger        *zap.Logger
}

// NewTriggerSystem 创建触发系统
func NewTriggerSystem(em *ecs.EntityManager, logger *zap.Logger) *TriggerSystem {
	return &TriggerSystem{
		entityManager: em,
		listeners:     make(map[ecs.EntityID][]TriggerListener),
		logger:        namedLogger(logger, "trigger"),
	}
}

// AddListener 为触发区域注册监听者
func (s *TriggerSystem) AddListener(volume ecs.EntityID, l TriggerListener) {
	s.listeners[volume] = append(s.listeners[volume], l)
}

// Update 检测重叠并派发事件
func (s *TriggerSystem) Update(deltaTime float64) {
	volumes := ecs.GetEntitiesWith2[
		*components.TriggerVolumeComponent,
		*components.TransformComponent,
	](s.entityManager)

	bodies := ecs.GetEntitiesWith3[
		*components.OrbComponent,
		*components.TriggerBodyComponent,
		*components.TransformComponent,
	](s.entityManager)

	for _, volumeID := range volumes {
		volume, _ := ecs.GetComponent[*components.TriggerVolumeComponent](s.entityManager, volumeID)
		volumeTr, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, volumeID)
		if volume.Inside == nil {
			volume.Inside = make(map[ecs.EntityID]bool)
		}

		current := make(map[ecs.EntityID]bool)
		if volume.Enabled {
			center := volumeTr.Position.Add(volume.Offset)
			for _, bodyID := range bodies {
				if bodyID == volumeID {
					continue
				}
				orb, _ := ecs.GetComponent[*components.OrbComponent](s.entityManager, bodyID)
				if !orb.Active {
					continue
				}
				body, _ := ecs.GetComponent[*components.TriggerBodyComponent](s.entityManager, bodyID)
				bodyTr, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, bodyID)
				if overlaps(volume, center, bodyTr.Position, body.Radius) {
					current[bodyID] = true
				}
			}
		}

		// 离开事件：之前在区域内、现在不在（包括已被销毁的光球）
		for _, id := range sortedIDs(volume.Inside) {
			if !current[id] {
				delete(volume.Inside, id)
				s.logger.Debug("trigger exit", zap.Uint64("volume", uint64(volumeID)), zap.Uint64("orb", uint64(id)))
				for _, l := range s.listeners[volumeID] {
					l.OnTriggerExit(volumeID, id)
				}
			}
		}

		// 进入事件
		for _, id := range sortedIDs(current) {
			if volume.Inside[id] {
				continue
			}
			volume.Inside[id] = true
			s.logger.Debug("trigger enter", zap.Uint64("volume", uint64(volumeID)), zap.Uint64("orb", uint64(id)))
			for _, l := range s.listeners[volumeID] {
				l.OnTriggerEnter(volumeID, id)
			}
		}
	}
}

// overlaps 判断半径为 r 的球体是否与触发区域重叠
func overlaps(v *components.TriggerVolumeComponent, center, pos utils.Vec3, r float64) bool {
	switch v.Shape {
	case components.TriggerBox:
		// 球心到盒子最近点的距离
		d := utils.Vec3{
			X: math.Max(math.Abs(pos.X-center.X)-v.HalfExtents.X, 0),
			Y: math.Max(math.Abs(pos.Y-center.Y)-v.HalfExtents.Y, 0),
			Z: math.Max(math.Abs(pos.Z-center.Z)-v.HalfExtents.Z, 0),
		}
		return d.Length() <= r
	default:
		return center.Distance(pos) <= v.Radius+r
	}
}

func sortedIDs(set map[ecs.EntityID]bool) []ecs.EntityID {
	ids := make([]ecs.EntityID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
