package render

import (
	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/systems"
	"github.com/decker502/orbgallery/pkg/utils"
)

// 指针手势参数
const (
	// tapSlop 轻点允许的移动距离（像素）
	tapSlop = 6
	// tapFrames 轻点允许的最长按下帧数
	tapFrames = 12
	// pickSlack 拾取光球时的额外半径（米）
	pickSlack = 0.05
)

// PointerController 把鼠标/触摸手势翻译为光球交互
//
//   - 在光球上轻点：Click（投影区借此结束展示）
//   - 在光球上按住拖动：Grab，随后 Drag，松开时 Drop
//   - 悬停：光球发光
//
// 拖动发生在光球被按下时所在的深度平面上。
type PointerController struct {
	entityManager *ecs.EntityManager
	interaction   *systems.InteractionSystem
	view          utils.View
	tracker       utils.DragTracker

	candidate ecs.EntityID // 按下时指针下的光球
	held      ecs.EntityID // 已经抓起的光球
	planeZ    float64
	hovered   ecs.EntityID
}

// NewPointerController 创建指针控制器
func NewPointerController(em *ecs.EntityManager, interaction *systems.InteractionSystem, view utils.View) *PointerController {
	return &PointerController{
		entityManager: em,
		interaction:   interaction,
		view:          view,
	}
}

// SetView 窗口尺寸或相机变化时更新投影
func (c *PointerController) SetView(view utils.View) {
	c.view = view
}

// Hovered 当前悬停的光球
func (c *PointerController) Hovered() ecs.EntityID { return c.hovered }

// Handle 处理一帧指针采样
func (c *PointerController) Handle(s utils.PointerSample) {
	info := c.tracker.Update(s)

	switch info.State {
	case utils.DragStateStarted:
		c.candidate = ecs.NoEntity
		c.held = ecs.NoEntity
		world := c.view.ScreenToWorld(float64(info.StartX), float64(info.StartY), 0)
		if orb, ok := c.interaction.OrbAt(world, pickSlack); ok {
			c.candidate = orb
			c.planeZ = c.depthOf(orb)
		}

	case utils.DragStateDragging:
		world := c.view.ScreenToWorld(float64(info.CurrentX), float64(info.CurrentY), c.planeZ)
		if c.held == ecs.NoEntity && c.candidate != ecs.NoEntity && !info.IsTap(tapSlop, tapFrames) {
			if c.interaction.Grab(c.candidate, world) {
				c.held = c.candidate
			}
			c.candidate = ecs.NoEntity
		}
		if c.held != ecs.NoEntity {
			c.interaction.Drag(world)
		}

	case utils.DragStateEnded:
		switch {
		case c.held != ecs.NoEntity:
			c.interaction.Drop()
		case c.candidate != ecs.NoEntity && info.IsTap(tapSlop, tapFrames):
			c.interaction.Click(c.candidate)
		}
		c.candidate = ecs.NoEntity
		c.held = ecs.NoEntity

	case utils.DragStateNone:
		c.hover(s)
	}
}

// hover 悬停发光，只关闭自己打开的发光
func (c *PointerController) hover(s utils.PointerSample) {
	world := c.view.ScreenToWorld(float64(s.X), float64(s.Y), 0)
	orb, ok := c.interaction.OrbAt(world, pickSlack)
	if !ok {
		orb = ecs.NoEntity
	}
	if orb == c.hovered {
		return
	}
	if c.hovered != ecs.NoEntity {
		c.interaction.DisableGlow(c.hovered)
	}
	c.hovered = ecs.NoEntity
	if orb != ecs.NoEntity {
		if comp, ok := ecs.GetComponent[*components.OrbComponent](c.entityManager, orb); ok && !comp.Glowing {
			c.interaction.EnableGlow(orb)
			c.hovered = orb
		}
	}
}

func (c *PointerController) depthOf(orb ecs.EntityID) float64 {
	if tr, ok := ecs.GetComponent[*components.TransformComponent](c.entityManager, orb); ok {
		return tr.Position.Z
	}
	return 0
}
