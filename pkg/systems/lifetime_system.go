package systems

import (
	"go.uber.org/zap"

	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
)

// LifetimeSystem 管理实体的生命周期（投影区生成的临时投影到期销毁）
type LifetimeSystem struct {
	entityManager *ecs.EntityManager
	logger        *zap.Logger
	onExpire      []func(id ecs.EntityID)
}

// NewLifetimeSystem 创建一个新的生命周期系统
func NewLifetimeSystem(em *ecs.EntityManager, logger *zap.Logger) *LifetimeSystem {
	return &LifetimeSystem{
		entityManager: em,
		logger:        namedLogger(logger, "lifetime"),
	}
}

// OnExpire 注册过期回调（在实体被标记删除前调用）
func (s *LifetimeSystem) OnExpire(fn func(id ecs.EntityID)) {
	if fn != nil {
		s.onExpire = append(s.onExpire, fn)
	}
}

// Update 更新所有拥有生命周期组件的实体
func (s *LifetimeSystem) Update(deltaTime float64) {
	entities := ecs.GetEntitiesWith1[*components.LifetimeComponent](s.entityManager)

	for _, id := range entities {
		lifetime, ok := ecs.GetComponent[*components.LifetimeComponent](s.entityManager, id)
		if !ok || lifetime.IsExpired {
			continue
		}

		lifetime.CurrentLifetime += deltaTime
		if lifetime.CurrentLifetime < lifetime.MaxLifetime {
			continue
		}

		// 过期：通知并标记实体待删除
		lifetime.IsExpired = true
		for _, fn := range s.onExpire {
			fn(id)
		}
		s.logger.Debug("entity expired", zap.Uint64("entity", uint64(id)), zap.Float64("lifetime", lifetime.CurrentLifetime))
		s.entityManager.DestroyEntity(id)
	}
}
