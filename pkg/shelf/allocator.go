package shelf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/utils"
)

// ErrNoFreeSlot 所有货架已满
var ErrNoFreeSlot = errors.New("all shelves are full")

// Policy 槽位分配策略
type Policy string

const (
	// PolicyBitmap 每次从头扫描占用表，取 (货架, 位置) 升序的第一个空位；
	// 支持释放与复用。
	PolicyBitmap Policy = "bitmap"

	// PolicyCursor 每个货架维护单调递增的游标，按货架顺序依次填满；
	// 不支持释放，Release 永远返回 false。
	PolicyCursor Policy = "cursor"
)

// ParsePolicy 解析配置中的策略名称，空字符串为 PolicyBitmap
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyBitmap:
		return PolicyBitmap, nil
	case PolicyCursor:
		return PolicyCursor, nil
	default:
		return "", fmt.Errorf("unknown allocation policy %q (want bitmap or cursor)", s)
	}
}

// Allocator 槽位分配器
type Allocator interface {
	// Policy 当前分配策略
	Policy() Policy
	// Acquire 为光球分配下一个槽位并标记占用
	Acquire(orb ecs.EntityID) (Slot, bool)
	// Release 释放光球占用的槽位，要求槽位与 pos 的距离小于 tolerance
	//
	// orb 为 ecs.NoEntity 时按位置释放容差内最近的已占用槽位。
	Release(orb ecs.EntityID, pos utils.Vec3, tolerance float64) (Slot, bool)
	// Capacity 槽位总数
	Capacity() int
	// Occupied 已占用槽位数
	Occupied() int
	// Slots 所有槽位的快照
	Slots() []Slot
	// SlotOf 查找光球所在槽位
	SlotOf(orb ecs.EntityID) (Slot, bool)
}

// NewAllocator 按策略创建分配器
func NewAllocator(policy Policy, set *Set) (Allocator, error) {
	if set == nil {
		set = NewSet(nil)
	}
	switch policy {
	case PolicyBitmap, "":
		return &bitmapAllocator{set: set}, nil
	case PolicyCursor:
		return &cursorAllocator{set: set, cursors: make([]int, set.ShelfCount())}, nil
	default:
		return nil, fmt.Errorf("unknown allocation policy %q", policy)
	}
}

// bitmapAllocator 基于占用表的分配器
type bitmapAllocator struct {
	set *Set
}

func (a *bitmapAllocator) Policy() Policy { return PolicyBitmap }

func (a *bitmapAllocator) Acquire(orb ecs.EntityID) (Slot, bool) {
	for shelfIndex, shelf := range a.set.shelves {
		for positionIndex, slot := range shelf {
			if !slot.Occupied() {
				return a.set.setOccupant(shelfIndex, positionIndex, orb), true
			}
		}
	}
	return Slot{}, false
}

func (a *bitmapAllocator) Release(orb ecs.EntityID, pos utils.Vec3, tolerance float64) (Slot, bool) {
	var shelfIndex, positionIndex int
	var ok bool
	if orb == ecs.NoEntity {
		shelfIndex, positionIndex, ok = a.set.closestOccupied(pos, tolerance)
	} else {
		shelfIndex, positionIndex, ok = a.set.indexOf(orb)
		ok = ok && pos.Distance(a.set.shelves[shelfIndex][positionIndex].Position) < tolerance
	}
	if !ok {
		return Slot{}, false
	}
	released := a.set.shelves[shelfIndex][positionIndex]
	a.set.setOccupant(shelfIndex, positionIndex, ecs.NoEntity)
	return released, true
}

func (a *bitmapAllocator) Capacity() int                        { return a.set.Capacity() }
func (a *bitmapAllocator) Occupied() int                        { return a.set.Occupied() }
func (a *bitmapAllocator) Slots() []Slot                        { return a.set.Slots() }
func (a *bitmapAllocator) SlotOf(orb ecs.EntityID) (Slot, bool) { return a.set.SlotOf(orb) }

// cursorAllocator 基于货架游标的分配器
//
// 游标只前进不后退，槽位一旦分配就不会再被分配，即使光球已被取走。
type cursorAllocator struct {
	set     *Set
	shelf   int
	cursors []int
}

func (a *cursorAllocator) Policy() Policy { return PolicyCursor }

func (a *cursorAllocator) Acquire(orb ecs.EntityID) (Slot, bool) {
	for a.shelf < a.set.ShelfCount() {
		if a.cursors[a.shelf] < a.set.ShelfLen(a.shelf) {
			positionIndex := a.cursors[a.shelf]
			a.cursors[a.shelf]++
			return a.set.setOccupant(a.shelf, positionIndex, orb), true
		}
		a.shelf++
	}
	return Slot{}, false
}

// Release 游标策略不回收槽位
func (a *cursorAllocator) Release(ecs.EntityID, utils.Vec3, float64) (Slot, bool) {
	return Slot{}, false
}

func (a *cursorAllocator) Capacity() int                        { return a.set.Capacity() }
func (a *cursorAllocator) Occupied() int                        { return a.set.Occupied() }
func (a *cursorAllocator) Slots() []Slot                        { return a.set.Slots() }
func (a *cursorAllocator) SlotOf(orb ecs.EntityID) (Slot, bool) { return a.set.SlotOf(orb) }
