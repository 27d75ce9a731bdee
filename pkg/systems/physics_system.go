package systems

import (
	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
)

// 物理默认参数
const (
	// DefaultGravity 重力加速度（米/秒²，向下）
	DefaultGravity = 9.81
	// DefaultFloorY 地面高度（米）
	DefaultFloorY = 0.0
	// floorFriction 落地后水平速度每秒衰减比例
	floorFriction = 4.0
)

// PhysicsSystem 处理未被收纳的光球的简化物理
//
// 只推进 Kinematic == false 的刚体：重力加速、位置积分、落地停止。停用的光球不参与。
// 被货架、投影仪、用户抓取持有的光球都是 Kinematic，不受影响。
type PhysicsSystem struct {
	em      *ecs.EntityManager
	gravity float64
	floorY  float64
}

// NewPhysicsSystem 创建物理系统
//
// 参数:
//   - em: 实体管理器
//   - gravity: 重力加速度（米/秒²），<= 0 时使用 DefaultGravity
//   - floorY: 地面高度
func NewPhysicsSystem(em *ecs.EntityManager, gravity, floorY float64) *PhysicsSystem {
	if gravity <= 0 {
		gravity = DefaultGravity
	}
	return &PhysicsSystem{
		em:      em,
		gravity: gravity,
		floorY:  floorY,
	}
}

// SetGravity 修改重力加速度（配置热更新）
func (ps *PhysicsSystem) SetGravity(gravity float64) {
	if gravity > 0 {
		ps.gravity = gravity
	}
}

// Update 推进一帧物理
func (ps *PhysicsSystem) Update(deltaTime float64) {
	entities := ecs.GetEntitiesWith2[
		*components.RigidBodyComponent,
		*components.TransformComponent,
	](ps.em)

	for _, id := range entities {
		rb, _ := ecs.GetComponent[*components.RigidBodyComponent](ps.em, id)
		tr, _ := ecs.GetComponent[*components.TransformComponent](ps.em, id)
		if rb.Kinematic {
			continue
		}
		if orb, ok := ecs.GetComponent[*components.OrbComponent](ps.em, id); ok && !orb.Active {
			continue
		}

		radius := 0.0
		if body, ok := ecs.GetComponent[*components.TriggerBodyComponent](ps.em, id); ok {
			radius = body.Radius
		}
		restY := ps.floorY + radius

		// 重力
		rb.Velocity.Y -= ps.gravity * deltaTime

		// 位置积分
		tr.Position = tr.Position.Add(rb.Velocity.Scale(deltaTime))
		tr.Rotation = tr.Rotation.Add(rb.AngularVelocity.Scale(deltaTime))

		// 落地：停在地面上，水平速度逐渐衰减
		if tr.Position.Y <= restY {
			tr.Position.Y = restY
			if rb.Velocity.Y < 0 {
				rb.Velocity.Y = 0
			}
			decay := 1 - floorFriction*deltaTime
			if decay < 0 {
				decay = 0
			}
			rb.Velocity.X *= decay
			rb.Velocity.Z *= decay
			rb.AngularVelocity = rb.AngularVelocity.Scale(decay)
		}
	}
}
