package entities

import (
	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/types"
	"github.com/decker502/orbgallery/pkg/utils"
)

// DefaultOrbRadius 光球碰撞半径（米）
const DefaultOrbRadius = 0.15

// NewOrbEntity 创建一个光球实体
//
// 参数:
//   - manager: EntityManager 实例
//   - record: 光球内容（会复制一份，实体持有自己的副本）
//   - pos: 初始世界坐标
//   - radius: 碰撞半径，<= 0 时使用 DefaultOrbRadius
//
// 返回: 创建的实体ID
func NewOrbEntity(manager *ecs.EntityManager, record types.OrbRecord, pos utils.Vec3, radius float64) ecs.EntityID {
	if radius <= 0 {
		radius = DefaultOrbRadius
	}

	id := manager.CreateEntity()

	rec := record
	ecs.AddComponent(manager, id, components.NewTransform(pos))
	ecs.AddComponent(manager, id, &components.RigidBodyComponent{})
	ecs.AddComponent(manager, id, &components.TriggerBodyComponent{Radius: radius})
	ecs.AddComponent(manager, id, &components.OrbComponent{
		Record: &rec,
		Active: true,
	})

	return id
}

// NewStorageAnchor 创建收纳锚点实体（货架根节点、单点收纳台）
//
// 锚点同时带一个触发区域，进入区域的光球会交给收纳系统处理。
func NewStorageAnchor(manager *ecs.EntityManager, name string, pos utils.Vec3, trigger *components.TriggerVolumeComponent) ecs.EntityID {
	id := manager.CreateEntity()

	ecs.AddComponent(manager, id, components.NewTransform(pos))
	ecs.AddComponent(manager, id, &components.StorageAnchorComponent{Name: name})
	if trigger != nil {
		ecs.AddComponent(manager, id, trigger)
	}

	return id
}

// NewTriggerZone 创建只有触发区域的实体（投影区、展示区）
func NewTriggerZone(manager *ecs.EntityManager, pos utils.Vec3, trigger *components.TriggerVolumeComponent) ecs.EntityID {
	id := manager.CreateEntity()

	ecs.AddComponent(manager, id, components.NewTransform(pos))
	if trigger != nil {
		ecs.AddComponent(manager, id, trigger)
	}

	return id
}

// NewProjectionEntity 创建投影区生成的一次性投影实体
//
// lifetime 秒后由 LifetimeSystem 销毁。
func NewProjectionEntity(manager *ecs.EntityManager, source ecs.EntityID, record *types.OrbRecord, pos utils.Vec3, lifetime float64) ecs.EntityID {
	id := manager.CreateEntity()

	proj := &components.ProjectionComponent{SourceOrb: source}
	if record != nil {
		proj.OrbName = record.Name
		proj.Texture = record.ImagePath
	}

	ecs.AddComponent(manager, id, components.NewTransform(pos))
	ecs.AddComponent(manager, id, proj)
	ecs.AddComponent(manager, id, &components.LifetimeComponent{
		MaxLifetime:     lifetime,
		CurrentLifetime: 0,
		IsExpired:       false,
	})

	return id
}
