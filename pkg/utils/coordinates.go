package utils

// View 正交投影：把世界 XY 平面映射到窗口像素
//
// 世界坐标 Y 向上、单位米；屏幕坐标 Y 向下、单位像素。
// Origin 对应窗口中心，Z 轴只用于绘制顺序，不影响投影位置。
//
// 转换公式：
//
//	screenX = Width/2  + (world.X - Origin.X) * PixelsPerUnit
//	screenY = Height/2 - (world.Y - Origin.Y) * PixelsPerUnit
type View struct {
	Width, Height int
	PixelsPerUnit float64
	Origin        Vec3
}

// WorldToScreen 世界坐标 → 屏幕坐标
func (v View) WorldToScreen(p Vec3) (screenX, screenY float64) {
	screenX = float64(v.Width)/2 + (p.X-v.Origin.X)*v.PixelsPerUnit
	screenY = float64(v.Height)/2 - (p.Y-v.Origin.Y)*v.PixelsPerUnit
	return screenX, screenY
}

// ScreenToWorld 屏幕坐标 → 世界坐标，z 由调用者指定（通常取交互平面）
func (v View) ScreenToWorld(screenX, screenY, z float64) Vec3 {
	if v.PixelsPerUnit == 0 {
		return Vec3{X: v.Origin.X, Y: v.Origin.Y, Z: z}
	}
	return Vec3{
		X: v.Origin.X + (screenX-float64(v.Width)/2)/v.PixelsPerUnit,
		Y: v.Origin.Y - (screenY-float64(v.Height)/2)/v.PixelsPerUnit,
		Z: z,
	}
}

// Pixels 世界长度 → 像素长度
func (v View) Pixels(worldLength float64) float64 {
	return worldLength * v.PixelsPerUnit
}
