package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/decker502/orbgallery/pkg/app"
	"github.com/decker502/orbgallery/pkg/config"
	"github.com/decker502/orbgallery/pkg/types"
	"github.com/decker502/orbgallery/pkg/utils"
)

// spawnPoint 按 N 键生成光球的位置
var spawnPoint = utils.V3(0, 2.5, 0.5)

// Game 装置窗口，实现 ebiten.Game
//
// 每个 tick 读取指针、推进场景一帧（固定 1/60 秒），Draw 只读场景状态。
type Game struct {
	installation *app.Installation
	rigs         map[string]*Rig
	pointer      *PointerController
	view         utils.View
	window       config.WindowConfig
	logger       *zap.Logger

	library   []types.OrbRecord
	nextSpawn int
	paused    bool

	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewGame 创建窗口
//
// rigs 按投影区名称索引，应与创建 Installation 时传入的协作者一致。
// library 为 N 键轮流生成的光球内容。
func NewGame(in *app.Installation, rigs map[string]*Rig, library []types.OrbRecord, logger *zap.Logger) *Game {
	if logger == nil {
		logger = zap.NewNop()
	}
	window := in.Config().Window
	view := utils.View{
		Width:         window.Width,
		Height:        window.Height,
		PixelsPerUnit: window.PixelsPerUnit,
		Origin:        window.Origin,
	}
	return &Game{
		installation: in,
		rigs:         rigs,
		pointer:      NewPointerController(in.EntityManager(), in.Interaction(), view),
		view:         view,
		window:       window,
		logger:       logger.Named("window"),
		library:      library,
	}
}

// Run 打开窗口并阻塞到窗口关闭
func (g *Game) Run() error {
	ebiten.SetWindowSize(g.window.Width, g.window.Height)
	ebiten.SetWindowTitle(g.window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(g)
}

// Update 更新场景
func (g *Game) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if g.pendingWindowSizeReset {
		g.windowSizeResetCountdown--
		if g.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(g.window.Width, g.window.Height)
			g.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			g.pendingWindowSizeReset = true
			g.windowSizeResetCountdown = 3
		} else {
			ebiten.SetFullscreen(true)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
		g.logger.Info("pause toggled", zap.Bool("paused", g.paused))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.spawnNext()
	}

	g.pointer.Handle(utils.ReadPointer())

	if !g.paused {
		g.installation.Update(app.FrameDelta)
	}
	return nil
}

// spawnNext 轮流生成内容库中的光球，内容库为空时生成空白光球
func (g *Game) spawnNext() {
	rec := types.NewOrbRecord("orb")
	if len(g.library) > 0 {
		rec = g.library[g.nextSpawn%len(g.library)]
		g.nextSpawn++
	}
	g.installation.SpawnOrb(rec, spawnPoint)
}

// Draw 绘制场景
func (g *Game) Draw(screen *ebiten.Image) {
	g.drawScene(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (g *Game) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回逻辑屏幕尺寸，Ebitengine 负责缩放
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.window.Width, g.window.Height
}
