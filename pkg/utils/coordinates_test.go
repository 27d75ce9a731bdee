package utils

import (
	"math"
	"testing"
)

func testView() View {
	return View{Width: 1280, Height: 720, PixelsPerUnit: 100, Origin: V3(0, 1.5, 0)}
}

func TestWorldToScreen(t *testing.T) {
	tests := []struct {
		name         string
		world        Vec3
		wantX, wantY float64
	}{
		{"原点在窗口中心", V3(0, 1.5, 0), 640, 360},
		{"向右一米", V3(1, 1.5, 0), 740, 360},
		{"向上一米（屏幕 Y 减小）", V3(0, 2.5, 0), 640, 260},
		{"Z 不影响投影", V3(-2, 0.5, -3), 440, 460},
	}

	v := testView()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := v.WorldToScreen(tt.world)
			if math.Abs(x-tt.wantX) > 1e-9 || math.Abs(y-tt.wantY) > 1e-9 {
				t.Errorf("WorldToScreen(%v) = (%v, %v), 期望 (%v, %v)", tt.world, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestScreenToWorldRoundTrip(t *testing.T) {
	v := testView()
	p := V3(1.25, -0.5, 0.75)

	x, y := v.WorldToScreen(p)
	back := v.ScreenToWorld(x, y, p.Z)
	if back.Distance(p) > 1e-9 {
		t.Errorf("ScreenToWorld(WorldToScreen(%v)) = %v", p, back)
	}
}

func TestScreenToWorldZeroScale(t *testing.T) {
	v := View{Width: 100, Height: 100, Origin: V3(1, 2, 0)}
	if got := v.ScreenToWorld(10, 10, 3); got != V3(1, 2, 3) {
		t.Errorf("零缩放时应返回 Origin，得到 %v", got)
	}
}

func TestPixels(t *testing.T) {
	if got := testView().Pixels(0.15); math.Abs(got-15) > 1e-9 {
		t.Errorf("Pixels(0.15) = %v, 期望 15", got)
	}
}
