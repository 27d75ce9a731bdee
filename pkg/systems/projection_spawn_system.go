package systems

import (
	"go.uber.org/zap"

	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/entities"
)

// DefaultProjectionLifetime 一次性投影的存在时间（秒）
const DefaultProjectionLifetime = 5.0

// ProjectionSpawnSystem 一次性投影区
//
// 光球进入区域后，在区域位置生成带光球图片的投影实体（到期由 LifetimeSystem 销毁），
// 并停用该光球。
type ProjectionSpawnSystem struct {
	entityManager *ecs.EntityManager
	zone          ecs.EntityID
	lifetime      float64
	logger        *zap.Logger
}

// NewProjectionSpawnSystem 创建投影生成系统，lifetime <= 0 时使用默认值
func NewProjectionSpawnSystem(em *ecs.EntityManager, zone ecs.EntityID, lifetime float64, logger *zap.Logger) *ProjectionSpawnSystem {
	if lifetime <= 0 {
		lifetime = DefaultProjectionLifetime
	}
	return &ProjectionSpawnSystem{
		entityManager: em,
		zone:          zone,
		lifetime:      lifetime,
		logger:        namedLogger(logger, "projection-spawn"),
	}
}

// OnTriggerEnter 光球进入区域
func (s *ProjectionSpawnSystem) OnTriggerEnter(volume, other ecs.EntityID) {
	s.Spawn(other)
}

// OnTriggerExit 忽略（光球已被停用）
func (s *ProjectionSpawnSystem) OnTriggerExit(volume, other ecs.EntityID) {}

// Spawn 为光球生成投影并停用光球，返回投影实体
func (s *ProjectionSpawnSystem) Spawn(orb ecs.EntityID) (ecs.EntityID, bool) {
	orbComp, ok := ecs.GetComponent[*components.OrbComponent](s.entityManager, orb)
	if !ok || !orbComp.Active {
		return ecs.NoEntity, false
	}
	zoneTr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, s.zone)
	if !ok {
		s.logger.Warn("projection zone has no transform", zap.Uint64("zone", uint64(s.zone)))
		return ecs.NoEntity, false
	}

	id := entities.NewProjectionEntity(s.entityManager, orb, orbComp.Record, zoneTr.Position, s.lifetime)
	proj, _ := ecs.GetComponent[*components.ProjectionComponent](s.entityManager, id)
	if proj.Texture == "" {
		s.logger.Warn("orb has no image, projection is blank", zap.Uint64("orb", uint64(orb)))
	}

	orbComp.Active = false
	orbComp.Glowing = false
	if rb, ok := ecs.GetComponent[*components.RigidBodyComponent](s.entityManager, orb); ok {
		rb.Freeze()
	}

	s.logger.Info("projection created",
		zap.Uint64("orb", uint64(orb)),
		zap.String("name", proj.OrbName),
		zap.Stringer("at", zoneTr.Position))
	return id, true
}

// Projections 当前存在的投影实体
func (s *ProjectionSpawnSystem) Projections() []ecs.EntityID {
	return ecs.GetEntitiesWith1[*components.ProjectionComponent](s.entityManager)
}
