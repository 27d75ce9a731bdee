package components

import (
	"github.com/decker502/orbgallery/pkg/types"
	"github.com/decker502/orbgallery/pkg/utils"
)

// OrbComponent 标记实体为光球，并保存交互状态
//
// 触发区域只对拥有该组件的实体生效（相当于 "Orb" 标签检查）。
type OrbComponent struct {
	// Record 光球承载的内容
	Record *types.OrbRecord

	// Active 光球是否参与场景（投影区会停用进入的光球）
	Active bool

	// Glowing 是否处于发光状态
	Glowing bool

	// Grabbed 是否正被用户抓取
	Grabbed bool

	// GrabSettled 抓取动画是否已结束（结束后才开始跟随指针）
	GrabSettled bool

	// Pointer 最近一次指针对应的世界坐标
	Pointer utils.Vec3

	// GrabOffset 抓取动画结束时光球相对指针的偏移
	GrabOffset utils.Vec3
}
