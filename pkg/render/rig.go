package render

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"go.uber.org/zap"

	"github.com/decker502/orbgallery/pkg/systems"
	"github.com/decker502/orbgallery/pkg/utils"
)

// Indicator 开关类效果（光束、光锥），绘制时读取状态
type Indicator struct {
	active bool
}

// SetActive 实现 systems.Effect
func (i *Indicator) SetActive(active bool) { i.active = active }

// Active 是否开启
func (i *Indicator) Active() bool { return i.active }

// Lamp 场景灯光，绘制时按强度调整背景亮度
type Lamp struct {
	intensity float64
}

// SetIntensity 实现 systems.Light
func (l *Lamp) SetIntensity(v float64) { l.intensity = v }

// Intensity 当前强度
func (l *Lamp) Intensity() float64 { return l.intensity }

// PlaceholderPlayer 视频播放占位
//
// 窗口里不解码视频：Play 只确认文件存在并记录路径，幕布上显示视频标题。
// 文件不存在时返回错误，投影仪会退回图片。
type PlaceholderPlayer struct {
	path    string
	playing bool
}

// Play 开始"播放"
func (p *PlaceholderPlayer) Play(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to open video: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("failed to open video: %s is a directory", path)
	}
	p.path = path
	p.playing = true
	return nil
}

// Stop 停止播放
func (p *PlaceholderPlayer) Stop() { p.playing = false }

// IsPlaying 是否在播放
func (p *PlaceholderPlayer) IsPlaying() bool { return p.playing }

// Path 最近一次播放的文件
func (p *PlaceholderPlayer) Path() string { return p.path }

// ImageScreen 投影幕布
//
// 图片在第一次绘制时加载并缓存，加载失败只记录一次日志。
type ImageScreen struct {
	imagePath string
	videoPath string
	videoW    int
	videoH    int
	alpha     float64

	cache  map[string]*ebiten.Image
	failed map[string]bool
	logger *zap.Logger
}

// NewImageScreen 创建幕布
func NewImageScreen(logger *zap.Logger) *ImageScreen {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageScreen{
		cache:  make(map[string]*ebiten.Image),
		failed: make(map[string]bool),
		logger: logger.Named("screen"),
	}
}

// ShowImage 显示图片
func (s *ImageScreen) ShowImage(path string) {
	s.imagePath = path
	s.videoPath = ""
}

// ShowVideo 显示视频（渲染尺寸 w×h）
func (s *ImageScreen) ShowVideo(path string, w, h int) {
	s.videoPath = path
	s.videoW, s.videoH = w, h
	s.imagePath = ""
}

// Clear 清空幕布
func (s *ImageScreen) Clear() {
	s.imagePath = ""
	s.videoPath = ""
}

// SetAlpha 设置透明度，限制在 [0, 1]
func (s *ImageScreen) SetAlpha(a float64) {
	s.alpha = utils.Clamp01(a)
}

// Alpha 当前透明度
func (s *ImageScreen) Alpha() float64 { return s.alpha }

// Content 当前内容
func (s *ImageScreen) Content() (kind systems.MediaKind, path string) {
	switch {
	case s.videoPath != "":
		return systems.MediaVideo, s.videoPath
	case s.imagePath != "":
		return systems.MediaImage, s.imagePath
	}
	return systems.MediaNone, ""
}

// image 返回当前图片（懒加载）
func (s *ImageScreen) image() *ebiten.Image {
	path := s.imagePath
	if path == "" || s.failed[path] {
		return nil
	}
	if img, ok := s.cache[path]; ok {
		return img
	}
	img, _, err := ebitenutil.NewImageFromFile(path)
	if err != nil {
		s.failed[path] = true
		s.logger.Error("failed to load image", zap.String("path", path), zap.Error(err))
		return nil
	}
	s.cache[path] = img
	return img
}

// Rig 一个投影区在窗口中的全部协作者
type Rig struct {
	Screen      *ImageScreen
	Player      *PlaceholderPlayer
	Beam        *Indicator
	Cone        *Indicator
	Directional *Lamp
	Point       *Lamp
	Hum         systems.Effect
}

// NewRig 创建投影区协作者，hum 可为 nil（关闭声音）
func NewRig(hum systems.Effect, logger *zap.Logger) *Rig {
	return &Rig{
		Screen:      NewImageScreen(logger),
		Player:      &PlaceholderPlayer{},
		Beam:        &Indicator{},
		Cone:        &Indicator{},
		Directional: &Lamp{intensity: 1},
		Point:       &Lamp{},
		Hum:         hum,
	}
}

// Systems 转换为投影仪状态机使用的协作者
func (r *Rig) Systems() systems.ProjectorRig {
	rig := systems.ProjectorRig{
		Player:      r.Player,
		Screen:      r.Screen,
		Beam:        r.Beam,
		Cone:        r.Cone,
		Directional: r.Directional,
		Point:       r.Point,
	}
	if r.Hum != nil {
		rig.Hum = r.Hum
	}
	return rig
}
