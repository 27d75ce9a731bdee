package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/shelf"
	"github.com/decker502/orbgallery/pkg/utils"
)

func TestGrabFromShelfReleasesSlot(t *testing.T) {
	f := newStorageFixture(t, shelf.PolicyBitmap, 1, 3, DefaultStorageOptions())
	interaction := NewInteractionSystem(f.em, f.tweens, nil)
	interaction.AddReleaser(f.storage)

	orb := spawnOrb(f.em, "a", utils.V3(0, 0, 0))
	f.storage.Enqueue(orb)
	f.run(1)
	require.Equal(t, f.anchor, transformOf(f.em, orb).Parent)

	grabPoint := utils.V3(0, 1.5, -2)
	require.True(t, interaction.Grab(orb, grabPoint))
	assert.Equal(t, orb, interaction.Grabbed())
	assert.Equal(t, ecs.NoEntity, transformOf(f.em, orb).Parent)
	assert.Equal(t, 0, f.storage.Allocator().Occupied())
	assert.False(t, f.storage.IsTracked(orb))

	orbComp, _ := ecs.GetComponent[*components.OrbComponent](f.em, orb)
	rb, _ := ecs.GetComponent[*components.RigidBodyComponent](f.em, orb)
	assert.True(t, orbComp.Grabbed)
	assert.True(t, rb.Kinematic)

	// 抓取动画结束前拖动只记录指针
	interaction.Drag(utils.V3(0, 1.5, -2))
	assert.False(t, orbComp.GrabSettled)

	f.run(GrabDuration)
	assert.True(t, orbComp.GrabSettled)
	assert.InDelta(t, 0, transformOf(f.em, orb).Position.Distance(grabPoint), 1e-9)

	interaction.Drag(utils.V3(1, 2, -2))
	f.run(DragDuration)
	assert.InDelta(t, 0, transformOf(f.em, orb).Position.Distance(utils.V3(1, 2, -2)), 1e-9)

	assert.Equal(t, orb, interaction.Drop())
	assert.False(t, orbComp.Grabbed)
	assert.False(t, rb.Kinematic)
	assert.Equal(t, ecs.NoEntity, interaction.Grabbed())
}

func TestGrabIgnoresOtherStorages(t *testing.T) {
	f := newStorageFixture(t, shelf.PolicyBitmap, 1, 3, DefaultStorageOptions())
	interaction := NewInteractionSystem(f.em, f.tweens, nil)
	interaction.AddReleaser(f.storage)

	shelved := spawnOrb(f.em, "shelved", utils.V3(0, 0, 0))
	f.storage.Enqueue(shelved)
	f.run(1)

	// 地上的光球恰好在槽位附近，抓起它不会释放别人的槽位
	loose := spawnOrb(f.em, "loose", transformOf(f.em, shelved).Position.Add(utils.V3(0.1, 0, 0)))
	require.True(t, interaction.Grab(loose, utils.V3(0, 2, 0)))
	assert.Equal(t, 1, f.storage.Allocator().Occupied())
}

func TestGrabSecondOrbDropsFirst(t *testing.T) {
	em := ecs.NewEntityManager()
	tweens := NewTweenSystem(em)
	interaction := NewInteractionSystem(em, tweens, nil)

	a := spawnOrb(em, "a", utils.V3(0, 0, 0))
	b := spawnOrb(em, "b", utils.V3(1, 0, 0))
	interaction.Grab(a, utils.V3(0, 1, 0))
	interaction.Grab(b, utils.V3(1, 1, 0))

	aComp, _ := ecs.GetComponent[*components.OrbComponent](em, a)
	assert.False(t, aComp.Grabbed)
	assert.Equal(t, b, interaction.Grabbed())
}

func TestGrabInactiveOrbFails(t *testing.T) {
	em := ecs.NewEntityManager()
	interaction := NewInteractionSystem(em, NewTweenSystem(em), nil)
	orb := spawnOrb(em, "a", utils.V3(0, 0, 0))
	comp, _ := ecs.GetComponent[*components.OrbComponent](em, orb)
	comp.Active = false

	assert.False(t, interaction.Grab(orb, utils.V3(0, 1, 0)))
	assert.False(t, interaction.Grab(em.CreateEntity(), utils.V3(0, 1, 0)))
}

func TestClickEndsProjectorSession(t *testing.T) {
	f := newProjectorFixture(t)
	interaction := NewInteractionSystem(f.em, f.tweens, nil)
	interaction.AddClickListener(f.projector)

	orb := f.orb("a", "a.png", "")
	require.True(t, f.projector.Enter(orb))
	f.run(2)

	interaction.Click(orb)
	assert.Equal(t, ProjectorIdle, f.projector.State())
}

func TestGrabDuringLiftAppliesDeferredExit(t *testing.T) {
	f := newProjectorFixture(t)
	interaction := NewInteractionSystem(f.em, f.tweens, nil)

	orb := f.orb("a", "a.png", "")
	require.True(t, f.projector.Enter(orb))
	f.run(1)
	require.True(t, f.projector.Vibrating())
	f.projector.Exit(orb)
	require.True(t, f.projector.ExitPending())

	// 抓取动画替换了抬升动画
	interaction.Grab(orb, utils.V3(0, 2, 1))
	runFrames(1, f.tweens, f.projector)

	assert.False(t, f.projector.Vibrating())
	assert.Equal(t, ProjectorIdle, f.projector.State())
	assert.True(t, f.tweens.IsTweening(orb, TweenMove), "抓取动画不受影响")
}

func TestGlowToggle(t *testing.T) {
	em := ecs.NewEntityManager()
	interaction := NewInteractionSystem(em, NewTweenSystem(em), nil)
	orb := spawnOrb(em, "a", utils.V3(0, 0, 0))
	comp, _ := ecs.GetComponent[*components.OrbComponent](em, orb)

	interaction.EnableGlow(orb)
	assert.True(t, comp.Glowing)
	interaction.DisableGlow(orb)
	assert.False(t, comp.Glowing)
}

func TestOrbAtPicksFrontmost(t *testing.T) {
	em := ecs.NewEntityManager()
	interaction := NewInteractionSystem(em, NewTweenSystem(em), nil)
	back := spawnOrb(em, "back", utils.V3(0, 0, -3))
	front := spawnOrb(em, "front", utils.V3(0.05, 0, -1))
	spawnOrb(em, "far", utils.V3(5, 5, 0))

	got, ok := interaction.OrbAt(utils.V3(0, 0, 0), 0)
	require.True(t, ok)
	assert.Equal(t, front, got)

	comp, _ := ecs.GetComponent[*components.OrbComponent](em, front)
	comp.Active = false
	got, _ = interaction.OrbAt(utils.V3(0, 0, 0), 0)
	assert.Equal(t, back, got)

	_, ok = interaction.OrbAt(utils.V3(2, 2, 0), 0.1)
	assert.False(t, ok)
}

type dropRecorder struct{ dropped []ecs.EntityID }

func (d *dropRecorder) OnOrbDropped(orb ecs.EntityID) { d.dropped = append(d.dropped, orb) }

func TestDragDeactivatedOrbDropsIt(t *testing.T) {
	em := ecs.NewEntityManager()
	tweens := NewTweenSystem(em)
	interaction := NewInteractionSystem(em, tweens, nil)
	rec := &dropRecorder{}
	interaction.AddDropListener(rec)

	orb := spawnOrb(em, "a", utils.V3(0, 0, 0))
	require.True(t, interaction.Grab(orb, utils.V3(0, 1, 0)))

	comp, _ := ecs.GetComponent[*components.OrbComponent](em, orb)
	comp.Active = false
	interaction.Drag(utils.V3(1, 1, 0))

	assert.Equal(t, ecs.NoEntity, interaction.Grabbed())
	assert.Equal(t, []ecs.EntityID{orb}, rec.dropped)
}
