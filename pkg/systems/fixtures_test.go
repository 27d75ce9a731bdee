package systems

import (
	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/entities"
	"github.com/decker502/orbgallery/pkg/shelf"
	"github.com/decker502/orbgallery/pkg/types"
	"github.com/decker502/orbgallery/pkg/utils"
)

// 测试用帧间隔
const frame = 1.0 / 60.0

// spawnOrb 在 pos 处创建一个带记录的光球
func spawnOrb(em *ecs.EntityManager, name string, pos utils.Vec3) ecs.EntityID {
	return entities.NewOrbEntity(em, types.NewOrbRecord(name), pos, 0.1)
}

// gridAllocator 创建 shelves×perShelf 的网格槽位，槽位间距 1 米
func gridAllocator(policy shelf.Policy, shelves, perShelf int) shelf.Allocator {
	positions := make([][]utils.Vec3, shelves)
	for s := 0; s < shelves; s++ {
		for p := 0; p < perShelf; p++ {
			positions[s] = append(positions[s], utils.V3(float64(p), float64(s)+1, -5))
		}
	}
	alloc, err := shelf.NewAllocator(policy, shelf.NewSetFromPositions(positions))
	if err != nil {
		panic(err)
	}
	return alloc
}

// runFrames 依次推进补间和收纳系统
func runFrames(n int, updaters ...interface{ Update(float64) }) {
	for i := 0; i < n; i++ {
		for _, u := range updaters {
			u.Update(frame)
		}
	}
}

func transformOf(em *ecs.EntityManager, id ecs.EntityID) *components.TransformComponent {
	tr, _ := ecs.GetComponent[*components.TransformComponent](em, id)
	return tr
}
