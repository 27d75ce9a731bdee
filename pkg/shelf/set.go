package shelf

import (
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/utils"
)

// DefaultReleaseTolerance 释放槽位时允许的位置误差（米）
const DefaultReleaseTolerance = 0.5

// Slot 货架上的一个槽位
//
// Occupant 为 ecs.NoEntity 表示空闲。
type Slot struct {
	ShelfIndex    int
	PositionIndex int
	Position      utils.Vec3
	Occupant      ecs.EntityID
}

// Occupied 槽位是否被占用
func (s Slot) Occupied() bool {
	return s.Occupant != ecs.NoEntity
}

// Set 按货架分组的槽位集合
//
// 槽位在创建时确定，之后既不重排也不增删，只有 Occupant 会变化。
type Set struct {
	shelves [][]Slot
}

// NewSet 用若干条货架曲线创建槽位集合，货架顺序即曲线顺序
func NewSet(curves []*Curve) *Set {
	s := &Set{shelves: make([][]Slot, 0, len(curves))}
	for shelfIndex, c := range curves {
		var positions []utils.Vec3
		if c != nil {
			positions = c.positions
		}
		slots := make([]Slot, len(positions))
		for i, p := range positions {
			slots[i] = Slot{ShelfIndex: shelfIndex, PositionIndex: i, Position: p}
		}
		s.shelves = append(s.shelves, slots)
	}
	return s
}

// NewSetFromPositions 直接用坐标创建槽位集合（测试与工具使用）
func NewSetFromPositions(shelves [][]utils.Vec3) *Set {
	s := &Set{shelves: make([][]Slot, 0, len(shelves))}
	for shelfIndex, positions := range shelves {
		slots := make([]Slot, len(positions))
		for i, p := range positions {
			slots[i] = Slot{ShelfIndex: shelfIndex, PositionIndex: i, Position: p}
		}
		s.shelves = append(s.shelves, slots)
	}
	return s
}

// ShelfCount 货架数量
func (s *Set) ShelfCount() int {
	return len(s.shelves)
}

// ShelfLen 指定货架的槽位数量
func (s *Set) ShelfLen(shelfIndex int) int {
	if shelfIndex < 0 || shelfIndex >= len(s.shelves) {
		return 0
	}
	return len(s.shelves[shelfIndex])
}

// Capacity 槽位总数
func (s *Set) Capacity() int {
	n := 0
	for _, shelf := range s.shelves {
		n += len(shelf)
	}
	return n
}

// Occupied 已占用槽位数量
func (s *Set) Occupied() int {
	n := 0
	for _, shelf := range s.shelves {
		for _, slot := range shelf {
			if slot.Occupied() {
				n++
			}
		}
	}
	return n
}

// Slot 返回指定槽位的副本
func (s *Set) Slot(shelfIndex, positionIndex int) (Slot, bool) {
	if shelfIndex < 0 || shelfIndex >= len(s.shelves) {
		return Slot{}, false
	}
	shelf := s.shelves[shelfIndex]
	if positionIndex < 0 || positionIndex >= len(shelf) {
		return Slot{}, false
	}
	return shelf[positionIndex], true
}

// Slots 按 (货架, 位置) 升序返回所有槽位的副本
func (s *Set) Slots() []Slot {
	out := make([]Slot, 0, s.Capacity())
	for _, shelf := range s.shelves {
		out = append(out, shelf...)
	}
	return out
}

// SlotOf 查找被指定光球占用的槽位
func (s *Set) SlotOf(orb ecs.EntityID) (Slot, bool) {
	shelfIndex, positionIndex, ok := s.indexOf(orb)
	if !ok {
		return Slot{}, false
	}
	return s.shelves[shelfIndex][positionIndex], true
}

func (s *Set) setOccupant(shelfIndex, positionIndex int, orb ecs.EntityID) Slot {
	s.shelves[shelfIndex][positionIndex].Occupant = orb
	return s.shelves[shelfIndex][positionIndex]
}

// indexOf 光球所在槽位的下标
func (s *Set) indexOf(orb ecs.EntityID) (int, int, bool) {
	if orb == ecs.NoEntity {
		return 0, 0, false
	}
	for shelfIndex, shelf := range s.shelves {
		for positionIndex, slot := range shelf {
			if slot.Occupant == orb {
				return shelfIndex, positionIndex, true
			}
		}
	}
	return 0, 0, false
}

// closestOccupied 查找距离 pos 小于 tolerance 的最近的已占用槽位
//
// 货架分辨率较高时相邻槽位间距远小于容差，只能取最近的一个。
func (s *Set) closestOccupied(pos utils.Vec3, tolerance float64) (int, int, bool) {
	bestShelf, bestPosition, found := 0, 0, false
	best := tolerance
	for shelfIndex, shelf := range s.shelves {
		for positionIndex, slot := range shelf {
			if !slot.Occupied() {
				continue
			}
			if d := pos.Distance(slot.Position); d < best {
				best = d
				bestShelf, bestPosition, found = shelfIndex, positionIndex, true
			}
		}
	}
	return bestShelf, bestPosition, found
}
