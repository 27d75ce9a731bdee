package render

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/systems"
	"github.com/decker502/orbgallery/pkg/utils"
)

var (
	backgroundColor = color.RGBA{R: 18, G: 20, B: 32, A: 255}
	shelfColor      = color.RGBA{R: 110, G: 90, B: 70, A: 255}
	slotColor       = color.RGBA{R: 160, G: 140, B: 110, A: 255}
	zoneColor       = color.RGBA{R: 90, G: 140, B: 200, A: 160}
	glowColor       = color.RGBA{R: 255, G: 240, B: 160, A: 255}
	beamColor       = color.RGBA{R: 255, G: 250, B: 200, A: 200}
	screenFrame     = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	helpText        = "N: new orb  P: pause  F11: fullscreen"
)

// 幕布尺寸（像素），位于投影区上方
const (
	screenWidth  = 240
	screenHeight = 135
	screenLift   = 2.2 // 幕布中心相对投影区中心的高度（米）
)

func (g *Game) drawScene(screen *ebiten.Image) {
	screen.Fill(g.background())
	g.drawShelves(screen)
	g.drawTriggers(screen)
	g.drawProjectors(screen)
	g.drawProjections(screen)
	g.drawOrbs(screen)
	g.drawStatus(screen)
}

// background 投影时主光变暗，背景跟随
func (g *Game) background() color.Color {
	intensity := 1.0
	for _, rig := range g.rigs {
		if v := rig.Directional.Intensity(); v < intensity {
			intensity = v
		}
	}
	k := 0.35 + 0.65*utils.Clamp01(intensity)
	return color.RGBA{
		R: uint8(float64(backgroundColor.R) * k),
		G: uint8(float64(backgroundColor.G) * k),
		B: uint8(float64(backgroundColor.B) * k),
		A: 255,
	}
}

func (g *Game) drawShelves(screen *ebiten.Image) {
	set := g.installation.Shelves()
	if set == nil {
		return
	}
	for s := 0; s < set.ShelfCount(); s++ {
		var prevX, prevY float32
		for i := 0; i < set.ShelfLen(s); i++ {
			slot, _ := set.Slot(s, i)
			x, y := g.screenPos(slot.Position)
			if i > 0 {
				vector.StrokeLine(screen, prevX, prevY, x, y, 3, shelfColor, true)
			}
			r := float32(g.view.Pixels(0.17))
			if slot.Occupied() {
				vector.DrawFilledCircle(screen, x, y, r, shelfColor, true)
			}
			vector.StrokeCircle(screen, x, y, r, 1, slotColor, true)
			prevX, prevY = x, y
		}
	}
}

func (g *Game) drawTriggers(screen *ebiten.Image) {
	em := g.installation.EntityManager()
	for _, id := range ecs.GetEntitiesWith2[*components.TriggerVolumeComponent, *components.TransformComponent](em) {
		vol, _ := ecs.GetComponent[*components.TriggerVolumeComponent](em, id)
		tr, _ := ecs.GetComponent[*components.TransformComponent](em, id)
		if !vol.Enabled {
			continue
		}
		x, y := g.screenPos(tr.Position.Add(vol.Offset))
		switch vol.Shape {
		case components.TriggerBox:
			w := float32(g.view.Pixels(vol.HalfExtents.X * 2))
			h := float32(g.view.Pixels(vol.HalfExtents.Y * 2))
			vector.StrokeRect(screen, x-w/2, y-h/2, w, h, 1, zoneColor, false)
		default:
			vector.StrokeCircle(screen, x, y, float32(g.view.Pixels(vol.Radius)), 1, zoneColor, true)
		}
	}
}

func (g *Game) drawProjectors(screen *ebiten.Image) {
	em := g.installation.EntityManager()
	projectors := g.installation.Projectors()
	configs := g.installation.Config().Projectors
	for i, p := range projectors {
		if i >= len(configs) {
			break
		}
		rig := g.rigs[configs[i].Name]
		if rig == nil {
			continue
		}
		tr, ok := ecs.GetComponent[*components.TransformComponent](em, p.Zone())
		if !ok {
			continue
		}
		zx, zy := g.screenPos(tr.Position)
		sx, sy := g.screenPos(tr.Position.Add(utils.V3(0, screenLift, 0)))
		left, top := sx-screenWidth/2, sy-screenHeight/2

		if rig.Cone.Active() {
			vector.StrokeLine(screen, zx, zy, left, top+screenHeight, 1, beamColor, true)
			vector.StrokeLine(screen, zx, zy, left+screenWidth, top+screenHeight, 1, beamColor, true)
		}
		if rig.Beam.Active() {
			vector.StrokeLine(screen, zx, zy, sx, top+screenHeight, 4, beamColor, true)
		}
		if v := rig.Point.Intensity(); v > 0 {
			a := uint8(utils.Clamp01(v/2) * 120)
			vector.DrawFilledCircle(screen, zx, zy, float32(g.view.Pixels(0.8)), color.RGBA{R: 255, G: 220, B: 150, A: a}, true)
		}

		vector.StrokeRect(screen, left, top, screenWidth, screenHeight, 2, screenFrame, false)
		g.drawScreenContent(screen, rig.Screen, left, top)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s: %s", configs[i].Name, p.State()), int(left), int(top+screenHeight+4))
	}
}

func (g *Game) drawScreenContent(screen *ebiten.Image, s *ImageScreen, left, top float32) {
	if s.Alpha() <= 0 {
		return
	}
	kind, path := s.Content()
	switch kind {
	case systems.MediaImage:
		img := s.image()
		if img == nil {
			ebitenutil.DebugPrintAt(screen, "image unavailable", int(left)+8, int(top)+8)
			return
		}
		b := img.Bounds()
		scale := min(float64(screenWidth)/float64(b.Dx()), float64(screenHeight)/float64(b.Dy()))
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(
			float64(left)+(screenWidth-float64(b.Dx())*scale)/2,
			float64(top)+(screenHeight-float64(b.Dy())*scale)/2,
		)
		op.ColorScale.ScaleAlpha(float32(s.Alpha()))
		op.Filter = ebiten.FilterLinear
		screen.DrawImage(img, op)
	case systems.MediaVideo:
		a := uint8(s.Alpha() * 255)
		vector.DrawFilledRect(screen, left, top, screenWidth, screenHeight, color.RGBA{R: 30, G: 30, B: 60, A: a}, false)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("video %dx%d", s.videoW, s.videoH), int(left)+8, int(top)+8)
		ebitenutil.DebugPrintAt(screen, path, int(left)+8, int(top)+24)
	}
}

func (g *Game) drawProjections(screen *ebiten.Image) {
	em := g.installation.EntityManager()
	for _, id := range ecs.GetEntitiesWith2[*components.ProjectionComponent, *components.TransformComponent](em) {
		proj, _ := ecs.GetComponent[*components.ProjectionComponent](em, id)
		tr, _ := ecs.GetComponent[*components.TransformComponent](em, id)
		alpha := 1.0
		if life, ok := ecs.GetComponent[*components.LifetimeComponent](em, id); ok && life.MaxLifetime > 0 {
			alpha = 1 - utils.Clamp01(life.CurrentLifetime/life.MaxLifetime)
		}
		x, y := g.screenPos(tr.Position)
		w, h := float32(g.view.Pixels(0.8)), float32(g.view.Pixels(0.45))
		vector.DrawFilledRect(screen, x-w/2, y-h/2, w, h, color.RGBA{R: 120, G: 180, B: 255, A: uint8(alpha * 120)}, false)
		ebitenutil.DebugPrintAt(screen, proj.OrbName, int(x-w/2)+4, int(y-h/2)+4)
	}
}

func (g *Game) drawOrbs(screen *ebiten.Image) {
	em := g.installation.EntityManager()
	ids := ecs.GetEntitiesWith3[*components.OrbComponent, *components.TransformComponent, *components.TriggerBodyComponent](em)

	// 远处（Z 小）先画
	sort.SliceStable(ids, func(i, j int) bool {
		a, _ := ecs.GetComponent[*components.TransformComponent](em, ids[i])
		b, _ := ecs.GetComponent[*components.TransformComponent](em, ids[j])
		return a.Position.Z < b.Position.Z
	})

	for _, id := range ids {
		orb, _ := ecs.GetComponent[*components.OrbComponent](em, id)
		tr, _ := ecs.GetComponent[*components.TransformComponent](em, id)
		body, _ := ecs.GetComponent[*components.TriggerBodyComponent](em, id)

		x, y := g.screenPos(tr.Position)
		r := float32(g.view.Pixels(body.Radius * tr.Scale.X))
		c := color.RGBA{R: 128, G: 128, B: 128, A: 255}
		if orb.Record != nil {
			c = orb.Record.RGBA()
		}
		if !orb.Active {
			c.A = 90
		}
		if orb.Glowing {
			vector.DrawFilledCircle(screen, x, y, r*1.5, color.RGBA{R: glowColor.R, G: glowColor.G, B: glowColor.B, A: 70}, true)
		}
		vector.DrawFilledCircle(screen, x, y, r, c, true)
		if orb.Grabbed {
			vector.StrokeCircle(screen, x, y, r+3, 2, glowColor, true)
		}
		if orb.Record != nil && id == g.pointer.Hovered() {
			ebitenutil.DebugPrintAt(screen, orb.Record.Name, int(x+r)+4, int(y)-8)
		}
	}
}

func (g *Game) drawStatus(screen *ebiten.Image) {
	in := g.installation
	status := fmt.Sprintf("frame %d  orbs %d", in.Frame(), len(in.Orbs()))
	if st := in.Storage(); st != nil {
		status += fmt.Sprintf("  shelves %d/%d  queued %d",
			st.Allocator().Occupied(), st.Allocator().Capacity(), len(st.Pending()))
	}
	if g.paused {
		status += "  [paused]"
	}
	ebitenutil.DebugPrintAt(screen, status, 8, 8)
	ebitenutil.DebugPrintAt(screen, helpText, 8, g.window.Height-20)
}

func (g *Game) screenPos(p utils.Vec3) (float32, float32) {
	x, y := g.view.WorldToScreen(p)
	return float32(x), float32(y)
}
