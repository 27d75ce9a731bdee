package components

import "github.com/decker502/orbgallery/pkg/utils"

// RigidBodyComponent 光球的简化刚体状态
//
// Kinematic 为 true 时物理系统不再推进该实体（被收纳、被抓取、被投影时）。
type RigidBodyComponent struct {
	Kinematic       bool
	Velocity        utils.Vec3 // 线速度（米/秒）
	AngularVelocity utils.Vec3 // 角速度（度/秒）
}

// Freeze 关闭物理并清零速度
func (rb *RigidBodyComponent) Freeze() {
	rb.Kinematic = true
	rb.Velocity = utils.Vec3{}
	rb.AngularVelocity = utils.Vec3{}
}

// Release 重新启用物理
func (rb *RigidBodyComponent) Release() {
	rb.Kinematic = false
}
