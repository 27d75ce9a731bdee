package components

import "github.com/decker502/orbgallery/pkg/ecs"

// ProjectionComponent 投影区生成的一次性投影
//
// 由 ProjectionSpawnSystem 创建，携带 LifetimeComponent，到期后自动销毁。
type ProjectionComponent struct {
	SourceOrb ecs.EntityID // 生成投影的光球
	OrbName   string       // 光球名称（用于显示/日志）
	Texture   string       // 投影贴图（光球图片路径，可为空）
}
