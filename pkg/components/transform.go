package components

import (
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/utils"
)

// TransformComponent 实体在场景中的空间状态（世界坐标）
//
// Parent 记录"所有权"：光球被货架收纳后 Parent 指向货架锚点实体，
// 被抓起时清零。场景图本身不随 Parent 变换，位置始终是世界坐标。
type TransformComponent struct {
	Position utils.Vec3   // 世界坐标
	Rotation utils.Vec3   // 欧拉角（度）
	Scale    utils.Vec3   // 缩放
	Parent   ecs.EntityID // 持有者实体，NoEntity 表示自由状态
}

// NewTransform 创建位于 pos、缩放为 1 的 Transform
func NewTransform(pos utils.Vec3) *TransformComponent {
	return &TransformComponent{
		Position: pos,
		Scale:    utils.V3(1, 1, 1),
	}
}
