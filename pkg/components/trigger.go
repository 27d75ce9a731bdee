package components

import (
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/utils"
)

// TriggerShape 触发区域形状
type TriggerShape int

const (
	// TriggerSphere 球形区域，使用 Radius
	TriggerSphere TriggerShape = iota
	// TriggerBox 轴对齐盒子区域，使用 HalfExtents
	TriggerBox
)

// TriggerVolumeComponent 触发区域（货架收纳区、投影区等）
//
// 区域中心 = 实体 Transform.Position + Offset。
// Inside 由 TriggerSystem 维护，记录当前位于区域内的光球。
type TriggerVolumeComponent struct {
	Shape       TriggerShape
	Radius      float64
	HalfExtents utils.Vec3
	Offset      utils.Vec3
	Enabled     bool

	Inside map[ecs.EntityID]bool
}

// NewSphereTrigger 创建球形触发区域
func NewSphereTrigger(radius float64) *TriggerVolumeComponent {
	return &TriggerVolumeComponent{
		Shape:   TriggerSphere,
		Radius:  radius,
		Enabled: true,
		Inside:  make(map[ecs.EntityID]bool),
	}
}

// NewBoxTrigger 创建盒子触发区域
func NewBoxTrigger(halfExtents utils.Vec3) *TriggerVolumeComponent {
	return &TriggerVolumeComponent{
		Shape:       TriggerBox,
		HalfExtents: halfExtents,
		Enabled:     true,
		Inside:      make(map[ecs.EntityID]bool),
	}
}

// TriggerBodyComponent 可以触发区域的物体（光球的碰撞球半径）
type TriggerBodyComponent struct {
	Radius float64
}
