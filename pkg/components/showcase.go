package components

import "github.com/decker502/orbgallery/pkg/utils"

// ShowcaseComponent 展示台：光球进入后被拉到观众面前并放大
type ShowcaseComponent struct {
	// ViewerPosition 观众（摄像机）位置
	ViewerPosition utils.Vec3
	// ViewerForward 观众朝向（单位向量）
	ViewerForward utils.Vec3
	// ViewerUp / ViewerRight 观众坐标系的另外两个轴
	ViewerUp    utils.Vec3
	ViewerRight utils.Vec3
	// TargetOffset 相对观众的偏移（右、上、前）
	TargetOffset utils.Vec3
	// TargetScale 动画结束时的缩放
	TargetScale utils.Vec3
	// Duration 动画时长（秒）
	Duration float64
}
