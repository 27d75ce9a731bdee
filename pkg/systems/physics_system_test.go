package systems

import (
	"testing"

	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/utils"
)

func TestPhysicsDropsOrbToFloor(t *testing.T) {
	em := ecs.NewEntityManager()
	ps := NewPhysicsSystem(em, 0, DefaultFloorY)
	orb := spawnOrb(em, "falling", utils.V3(0, 2, 0))

	for i := 0; i < 120; i++ {
		ps.Update(frame)
	}

	tr := transformOf(em, orb)
	if tr.Position.Y != 0.1 {
		t.Errorf("期望停在地面上 Y=0.1（半径），实际 %v", tr.Position.Y)
	}
	rb, _ := ecs.GetComponent[*components.RigidBodyComponent](em, orb)
	if rb.Velocity.Y != 0 {
		t.Errorf("落地后竖直速度应为 0，实际 %v", rb.Velocity.Y)
	}
}

func TestPhysicsSkipsKinematicAndInactive(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(rb *components.RigidBodyComponent, orb *components.OrbComponent)
	}{
		{"被持有", func(rb *components.RigidBodyComponent, _ *components.OrbComponent) { rb.Freeze() }},
		{"已停用", func(_ *components.RigidBodyComponent, orb *components.OrbComponent) { orb.Active = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			em := ecs.NewEntityManager()
			ps := NewPhysicsSystem(em, DefaultGravity, DefaultFloorY)
			id := spawnOrb(em, "held", utils.V3(0, 2, 0))
			rb, _ := ecs.GetComponent[*components.RigidBodyComponent](em, id)
			orb, _ := ecs.GetComponent[*components.OrbComponent](em, id)
			tt.mutate(rb, orb)

			ps.Update(0.5)

			if y := transformOf(em, id).Position.Y; y != 2 {
				t.Errorf("期望位置不变 Y=2，实际 %v", y)
			}
		})
	}
}

func TestPhysicsFloorFrictionStopsSliding(t *testing.T) {
	em := ecs.NewEntityManager()
	ps := NewPhysicsSystem(em, DefaultGravity, DefaultFloorY)
	id := spawnOrb(em, "rolling", utils.V3(0, 0.1, 0))
	rb, _ := ecs.GetComponent[*components.RigidBodyComponent](em, id)
	rb.Velocity = utils.V3(2, 0, 0)

	for i := 0; i < 60; i++ {
		ps.Update(frame)
	}
	if rb.Velocity.X >= 2*0.1 {
		t.Errorf("水平速度应明显衰减，实际 %v", rb.Velocity.X)
	}
	if transformOf(em, id).Position.X <= 0 {
		t.Error("光球应向 +X 滑动")
	}
}
