package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/decker502/orbgallery/pkg/app"
	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/types"
)

const helpLine = "s: store orb  r: release orb  v: project orb  p: pause  q: quit"

var (
	headerStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	textStyle     = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	occupiedStyle = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	freeStyle     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	helpStyle     = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// Monitor 终端监视器：驱动场景并显示货架和投影区状态
type Monitor struct {
	screen       tcell.Screen
	installation *app.Installation
	logger       *zap.Logger
	library      []types.OrbRecord
	paused       bool
	spawned      int
	releasing    ecs.EntityID // 正被拿出货架、等待放下的光球
}

// New 创建监视器，screen 需已 Init
//
// library 中带图片或视频的记录会被 v 键轮流送进投影区。
func New(screen tcell.Screen, in *app.Installation, library []types.OrbRecord, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		screen:       screen,
		installation: in,
		library:      library,
		logger:       logger.Named("monitor"),
	}
}

// Run 按帧推进场景并刷新画面，直到 ctx 结束或按下 q
func (m *Monitor) Run(ctx context.Context) error {
	frameDelta := app.FrameDelta
	ticker := time.NewTicker(time.Duration(frameDelta * float64(time.Second)))
	defer ticker.Stop()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := m.screen.PollEvent()
			if ev == nil {
				// 屏幕已关闭
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	m.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok || !m.HandleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			if !m.paused {
				m.Step()
			}
			m.Draw()
		}
	}
}

// HandleEvent 处理一个终端事件，返回 false 表示退出
func (m *Monitor) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case 'p':
			m.paused = !m.paused
		case 's':
			m.StoreOrb()
		case 'r':
			m.ReleaseOrb()
		case 'v':
			m.ProjectOrb()
		}
	case *tcell.EventResize:
		m.screen.Sync()
	}
	return true
}

// StoreOrb 在货架收纳区中心生成一个光球
func (m *Monitor) StoreOrb() ecs.EntityID {
	cfg := m.installation.Config().Shelves
	return m.installation.SpawnOrb(m.nextRecord(false), cfg.Anchor.Add(cfg.Trigger.Offset))
}

// ReleaseOrb 把编号最大的已收纳光球拿到货架收纳区前方，到位后放下
func (m *Monitor) ReleaseOrb() bool {
	in := m.installation
	em := in.EntityManager()
	orbs := in.Orbs()
	for i := len(orbs) - 1; i >= 0; i-- {
		tr, ok := ecs.GetComponent[*components.TransformComponent](em, orbs[i])
		if !ok || tr.Parent == ecs.NoEntity {
			continue
		}
		target := tr.Position
		target.Z = m.frontOfShelves()
		if in.Interaction().Grab(orbs[i], target) {
			m.releasing = orbs[i]
			return true
		}
	}
	return false
}

// frontOfShelves 货架收纳区前方的深度
func (m *Monitor) frontOfShelves() float64 {
	cfg := m.installation.Config().Shelves
	depth := max(cfg.Trigger.HalfExtents.Z, cfg.Trigger.Radius)
	return cfg.Anchor.Z + cfg.Trigger.Offset.Z + depth + 0.5
}

// Step 推进一帧；被拿出的光球抓取动画结束后放下
func (m *Monitor) Step() {
	m.installation.Update(app.FrameDelta)

	if m.releasing == ecs.NoEntity {
		return
	}
	interaction := m.installation.Interaction()
	if interaction.Grabbed() != m.releasing {
		m.releasing = ecs.NoEntity
		return
	}
	if orb, ok := ecs.GetComponent[*components.OrbComponent](m.installation.EntityManager(), m.releasing); ok && orb.GrabSettled {
		interaction.Drop()
		m.releasing = ecs.NoEntity
	}
}

// ProjectOrb 把一个新光球放进第一个投影区
func (m *Monitor) ProjectOrb() ecs.EntityID {
	projectors := m.installation.Config().Projectors
	if len(projectors) == 0 {
		return ecs.NoEntity
	}
	return m.installation.SpawnOrb(m.nextRecord(true), projectors[0].Position)
}

// nextRecord 轮流取内容库中的记录，没有合适记录时生成占位记录
func (m *Monitor) nextRecord(needMedia bool) types.OrbRecord {
	m.spawned++
	for i := range m.library {
		rec := m.library[(m.spawned+i)%len(m.library)]
		if !needMedia || rec.HasImage() || rec.HasVideo() {
			return rec
		}
	}
	rec := types.NewOrbRecord(fmt.Sprintf("orb %d", m.spawned))
	if needMedia {
		rec.ImagePath = "placeholder.png"
	}
	return rec
}

// Paused 是否暂停
func (m *Monitor) Paused() bool { return m.paused }

// Draw 绘制当前帧
func (m *Monitor) Draw() {
	snap := Capture(m.installation)
	snap.Paused = m.paused
	m.screen.Clear()
	for y, line := range snap.Lines() {
		style := textStyle
		if y == 0 {
			style = headerStyle
		}
		drawLine(m.screen, 0, y, line, style)
	}
	_, h := m.screen.Size()
	drawLine(m.screen, 0, h-1, helpLine, helpStyle)
	m.screen.Show()
}

// drawLine 写一行文本，货架槽位字符单独着色
func drawLine(screen tcell.Screen, x, y int, line string, style tcell.Style) {
	inSlots := false
	for _, r := range line {
		st := style
		switch {
		case r == '[':
			inSlots = true
		case r == ']':
			inSlots = false
		case inSlots && r == '#':
			st = occupiedStyle
		case inSlots && r == '.':
			st = freeStyle
		}
		screen.SetContent(x, y, r, nil, st)
		x++
	}
}
