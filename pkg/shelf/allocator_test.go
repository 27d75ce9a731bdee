package shelf

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/utils"
)

type slotKey struct {
	Shelf, Position int
}

// gridSet 创建 shelves 个货架、每个 perShelf 个槽位的集合，槽位间距 1 米
func gridSet(shelves, perShelf int) *Set {
	positions := make([][]utils.Vec3, shelves)
	for s := 0; s < shelves; s++ {
		for p := 0; p < perShelf; p++ {
			positions[s] = append(positions[s], utils.V3(float64(p), float64(s), 0))
		}
	}
	return NewSetFromPositions(positions)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyBitmap, p)

	p, err = ParsePolicy(" Cursor ")
	require.NoError(t, err)
	assert.Equal(t, PolicyCursor, p)

	_, err = ParsePolicy("random")
	assert.Error(t, err)
}

func TestAllocatorsAssignAscendingDistinctSlots(t *testing.T) {
	for _, policy := range []Policy{PolicyBitmap, PolicyCursor} {
		t.Run(string(policy), func(t *testing.T) {
			alloc, err := NewAllocator(policy, gridSet(3, 5))
			require.NoError(t, err)
			require.Equal(t, 15, alloc.Capacity())

			var got []slotKey
			rejected := 0
			for orb := ecs.EntityID(1); orb <= 20; orb++ {
				slot, ok := alloc.Acquire(orb)
				if !ok {
					rejected++
					continue
				}
				got = append(got, slotKey{slot.ShelfIndex, slot.PositionIndex})
			}

			var want []slotKey
			for s := 0; s < 3; s++ {
				for p := 0; p < 5; p++ {
					want = append(want, slotKey{s, p})
				}
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("assignment order mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, 5, rejected, "超出容量的 5 个光球应被拒绝")
			assert.Equal(t, 15, alloc.Occupied())
		})
	}
}

func TestBitmapReleaseFreesExactlyOneSlotForReuse(t *testing.T) {
	alloc, err := NewAllocator(PolicyBitmap, gridSet(2, 3))
	require.NoError(t, err)

	for orb := ecs.EntityID(1); orb <= 6; orb++ {
		_, ok := alloc.Acquire(orb)
		require.True(t, ok)
	}

	// 槽位 (1, 1) 位于 (1, 1, 0)，给出 0.3 米误差
	released, ok := alloc.Release(ecs.NoEntity, utils.V3(1.2, 1.2, 0.1), DefaultReleaseTolerance)
	require.True(t, ok)
	assert.Equal(t, 1, released.ShelfIndex)
	assert.Equal(t, 1, released.PositionIndex)
	assert.Equal(t, ecs.EntityID(5), released.Occupant, "返回释放前的占用者")
	assert.Equal(t, 5, alloc.Occupied(), "只释放一个槽位")

	slot, ok := alloc.Acquire(42)
	require.True(t, ok, "释放后的槽位可以复用")
	assert.Equal(t, slotKey{1, 1}, slotKey{slot.ShelfIndex, slot.PositionIndex})

	got, ok := alloc.SlotOf(42)
	require.True(t, ok)
	assert.Equal(t, slot.Position, got.Position)
}

func TestBitmapReleaseOnDenseCurveFreesOwnSlot(t *testing.T) {
	curve, err := NewCurve("dense", []utils.Vec3{
		utils.V3(-2, 1, 0), utils.V3(0, 2, 0), utils.V3(2, 1, 0),
	}, 0)
	require.NoError(t, err)
	alloc, err := NewAllocator(PolicyBitmap, NewSet([]*Curve{curve}))
	require.NoError(t, err)

	for orb := ecs.EntityID(1); orb <= 3; orb++ {
		_, ok := alloc.Acquire(orb)
		require.True(t, ok)
	}
	third, ok := alloc.SlotOf(3)
	require.True(t, ok)
	first, _ := alloc.SlotOf(1)
	require.Less(t, first.Position.Distance(third.Position), DefaultReleaseTolerance, "相邻槽位都在容差内")

	released, ok := alloc.Release(3, third.Position, DefaultReleaseTolerance)
	require.True(t, ok)
	assert.Equal(t, 2, released.PositionIndex)
	assert.Equal(t, ecs.EntityID(3), released.Occupant)
	_, stillHeld := alloc.SlotOf(3)
	assert.False(t, stillHeld)

	slot, ok := alloc.Acquire(4)
	require.True(t, ok)
	assert.Equal(t, 2, slot.PositionIndex, "复用刚释放的槽位，不占用别人的")
	got, _ := alloc.SlotOf(1)
	assert.Equal(t, 0, got.PositionIndex)
	assert.Equal(t, 4, alloc.Occupied())
}

func TestBitmapReleaseByPositionPicksClosest(t *testing.T) {
	curve, err := NewCurve("dense", []utils.Vec3{
		utils.V3(-2, 1, 0), utils.V3(0, 2, 0), utils.V3(2, 1, 0),
	}, 0)
	require.NoError(t, err)
	alloc, err := NewAllocator(PolicyBitmap, NewSet([]*Curve{curve}))
	require.NoError(t, err)
	for orb := ecs.EntityID(1); orb <= 5; orb++ {
		_, _ = alloc.Acquire(orb)
	}

	target, _ := alloc.SlotOf(4)
	released, ok := alloc.Release(ecs.NoEntity, target.Position, DefaultReleaseTolerance)
	require.True(t, ok)
	assert.Equal(t, ecs.EntityID(4), released.Occupant)
}

func TestBitmapReleaseIgnoresOrbWithoutSlot(t *testing.T) {
	alloc, err := NewAllocator(PolicyBitmap, gridSet(1, 3))
	require.NoError(t, err)
	first, _ := alloc.Acquire(1)

	_, ok := alloc.Release(7, first.Position, DefaultReleaseTolerance)
	assert.False(t, ok, "不释放其他光球的槽位")
	assert.Equal(t, 1, alloc.Occupied())
}

func TestBitmapReleaseOutsideTolerance(t *testing.T) {
	alloc, err := NewAllocator(PolicyBitmap, gridSet(1, 3))
	require.NoError(t, err)
	_, _ = alloc.Acquire(1)

	_, ok := alloc.Release(ecs.NoEntity, utils.V3(0, 0.6, 0), DefaultReleaseTolerance)
	assert.False(t, ok, "超出 0.5 米误差不释放")
	assert.Equal(t, 1, alloc.Occupied())
}

func TestBitmapPrefersEarliestFreeSlot(t *testing.T) {
	alloc, err := NewAllocator(PolicyBitmap, gridSet(2, 2))
	require.NoError(t, err)
	for orb := ecs.EntityID(1); orb <= 4; orb++ {
		_, _ = alloc.Acquire(orb)
	}

	// 先释放后面的，再释放前面的，下一次分配仍取最靠前的空位
	_, ok := alloc.Release(ecs.NoEntity, utils.V3(1, 1, 0), DefaultReleaseTolerance)
	require.True(t, ok)
	_, ok = alloc.Release(ecs.NoEntity, utils.V3(0, 0, 0), DefaultReleaseTolerance)
	require.True(t, ok)

	slot, ok := alloc.Acquire(9)
	require.True(t, ok)
	assert.Equal(t, slotKey{0, 0}, slotKey{slot.ShelfIndex, slot.PositionIndex})
}

func TestCursorReleaseIsNoOp(t *testing.T) {
	alloc, err := NewAllocator(PolicyCursor, gridSet(1, 3))
	require.NoError(t, err)

	first, ok := alloc.Acquire(1)
	require.True(t, ok)

	_, ok = alloc.Release(1, first.Position, DefaultReleaseTolerance)
	assert.False(t, ok, "游标策略不支持释放")
	assert.Equal(t, 1, alloc.Occupied())

	next, ok := alloc.Acquire(2)
	require.True(t, ok)
	assert.Equal(t, 1, next.PositionIndex, "游标不会回退到已用过的槽位")
}

func TestCursorSkipsEmptyShelves(t *testing.T) {
	set := NewSetFromPositions([][]utils.Vec3{
		{utils.V3(0, 0, 0)},
		nil,
		{utils.V3(0, 2, 0), utils.V3(1, 2, 0)},
	})
	alloc, err := NewAllocator(PolicyCursor, set)
	require.NoError(t, err)

	var shelves []int
	for orb := ecs.EntityID(1); orb <= 4; orb++ {
		if slot, ok := alloc.Acquire(orb); ok {
			shelves = append(shelves, slot.ShelfIndex)
		}
	}
	assert.Equal(t, []int{0, 2, 2}, shelves)
}

func TestSetFromCurves(t *testing.T) {
	a, err := NewCurve("a", []utils.Vec3{utils.V3(0, 0, 0), utils.V3(1, 0, 0), utils.V3(2, 0, 0)}, 2)
	require.NoError(t, err)
	b, err := NewCurve("b", []utils.Vec3{utils.V3(0, 1, 0), utils.V3(1, 1, 0), utils.V3(2, 1, 0)}, 1)
	require.NoError(t, err)

	set := NewSet([]*Curve{a, nil, b})
	assert.Equal(t, 3, set.ShelfCount())
	assert.Equal(t, 0, set.ShelfLen(1), "缺失的曲线对应空货架")
	assert.Equal(t, 5, set.Capacity())

	slot, ok := set.Slot(2, 1)
	require.True(t, ok)
	assert.Equal(t, utils.V3(2, 1, 0), slot.Position)

	_, ok = set.Slot(5, 0)
	assert.False(t, ok)
}
