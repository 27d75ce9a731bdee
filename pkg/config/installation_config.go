package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/decker502/orbgallery/pkg/embedded"
	"github.com/decker502/orbgallery/pkg/shelf"
	"github.com/decker502/orbgallery/pkg/utils"
)

// DefaultConfigPath 内嵌默认配置的路径
const DefaultConfigPath = "data/installation.yaml"

// InstallationConfig 装置场景配置
//
// 加载顺序：代码默认值 → YAML 文件（内嵌默认或 --config 指定）→ ORBGALLERY_* 环境变量 → 校验。
//
// 配置文件位置: data/installation.yaml
type InstallationConfig struct {
	// Shelves 曲线货架（锚点、触发区域、各层曲线控制点）
	Shelves ShelvesConfig `yaml:"shelves"`

	// Storage 货架收纳策略
	Storage StorageConfig `yaml:"storage"`

	// Projectors 投影区（每个区域一个状态机）
	Projectors []ProjectorConfig `yaml:"projectors"`

	// Pedestals 单点收纳台
	Pedestals []PedestalConfig `yaml:"pedestals"`

	// ProjectionZones 一次性投影区
	ProjectionZones []ProjectionZoneConfig `yaml:"projectionZones"`

	// Showcase 展示台
	Showcase ShowcaseConfig `yaml:"showcase"`

	Physics PhysicsConfig `yaml:"physics"`
	Library LibraryConfig `yaml:"library"`
	Upload  UploadConfig  `yaml:"upload"`
	Audio   AudioConfig   `yaml:"audio"`
	Window  WindowConfig  `yaml:"window"`
}

// TriggerConfig 触发区域
type TriggerConfig struct {
	Shape       string     `yaml:"shape"` // sphere | box
	Radius      float64    `yaml:"radius"`
	HalfExtents utils.Vec3 `yaml:"halfExtents"`
	Offset      utils.Vec3 `yaml:"offset"`
}

// CurveConfig 一层货架的曲线（三个控制点）
type CurveConfig struct {
	Name   string       `yaml:"name"`
	Points []utils.Vec3 `yaml:"points"`
}

// ShelvesConfig 曲线货架
type ShelvesConfig struct {
	Anchor     utils.Vec3    `yaml:"anchor"`
	Trigger    TriggerConfig `yaml:"trigger"`
	Resolution int           `yaml:"resolution"`
	Curves     []CurveConfig `yaml:"curves"`
}

// StorageConfig 收纳策略
//
// cursor 策略不会释放槽位，与 requeue 组合时货架满后队列将一直暂停。
type StorageConfig struct {
	Policy           string  `yaml:"policy" env:"ORBGALLERY_STORAGE_POLICY"`  // bitmap | cursor
	Mode             string  `yaml:"mode" env:"ORBGALLERY_STORAGE_MODE"`      // sequential | joined
	OnFull           string  `yaml:"onFull" env:"ORBGALLERY_STORAGE_ON_FULL"` // drop | requeue
	MoveDuration     float64 `yaml:"moveDuration" env:"ORBGALLERY_STORAGE_MOVE_DURATION"`
	Ease             string  `yaml:"ease" env:"ORBGALLERY_STORAGE_EASE"`
	ReleaseTolerance float64 `yaml:"releaseTolerance"`
}

// ProjectorConfig 投影区
type ProjectorConfig struct {
	Name                 string     `yaml:"name"`
	Position             utils.Vec3 `yaml:"position"`
	Radius               float64    `yaml:"radius"`
	FadeDuration         float64    `yaml:"fadeDuration"`
	LightFadeDuration    float64    `yaml:"lightFadeDuration"`
	DirectionalIntensity float64    `yaml:"directionalIntensity"`
	PointIntensity       float64    `yaml:"pointIntensity"`
	LiftHeight           float64    `yaml:"liftHeight"`
	LiftDuration         float64    `yaml:"liftDuration"`
	VibrationAmplitude   float64    `yaml:"vibrationAmplitude"`
	VibrationPeriod      float64    `yaml:"vibrationPeriod"`
	ReturnDuration       float64    `yaml:"returnDuration"`
	RenderWidth          int        `yaml:"renderWidth"`
	RenderHeight         int        `yaml:"renderHeight"`
}

// PedestalConfig 单点收纳台
type PedestalConfig struct {
	Name     string     `yaml:"name"`
	Position utils.Vec3 `yaml:"position"`
	Rotation utils.Vec3 `yaml:"rotation"`
	Radius   float64    `yaml:"radius"`
	Mode     string     `yaml:"mode"` // instant | animated
	Duration float64    `yaml:"duration"`
}

// ProjectionZoneConfig 一次性投影区
type ProjectionZoneConfig struct {
	Name        string     `yaml:"name"`
	Position    utils.Vec3 `yaml:"position"`
	HalfExtents utils.Vec3 `yaml:"halfExtents"`
	Lifetime    float64    `yaml:"lifetime"`
}

// ShowcaseConfig 展示台
type ShowcaseConfig struct {
	Enabled        bool       `yaml:"enabled"`
	Position       utils.Vec3 `yaml:"position"`
	Radius         float64    `yaml:"radius"`
	ViewerPosition utils.Vec3 `yaml:"viewerPosition"`
	ViewerForward  utils.Vec3 `yaml:"viewerForward"`
	ViewerUp       utils.Vec3 `yaml:"viewerUp"`
	ViewerRight    utils.Vec3 `yaml:"viewerRight"`
	Offset         utils.Vec3 `yaml:"offset"`
	Scale          utils.Vec3 `yaml:"scale"`
	Duration       float64    `yaml:"duration"`
}

// PhysicsConfig 简化物理
type PhysicsConfig struct {
	Gravity float64 `yaml:"gravity" env:"ORBGALLERY_PHYSICS_GRAVITY"`
	FloorY  float64 `yaml:"floorY"`
}

// LibraryConfig 光球内容库
type LibraryConfig struct {
	Backend string `yaml:"backend" env:"ORBGALLERY_LIBRARY_BACKEND"` // gdata | sqlite
	AppName string `yaml:"appName" env:"ORBGALLERY_LIBRARY_APP_NAME"`
	Path    string `yaml:"path" env:"ORBGALLERY_LIBRARY_PATH"` // sqlite 文件路径
}

// UploadConfig 内容上传
type UploadConfig struct {
	Endpoint    string        `yaml:"endpoint" env:"ORBGALLERY_UPLOAD_ENDPOINT"`
	Timeout     time.Duration `yaml:"timeout" env:"ORBGALLERY_UPLOAD_TIMEOUT"`
	Concurrency int           `yaml:"concurrency" env:"ORBGALLERY_UPLOAD_CONCURRENCY"`
}

// AudioConfig 振动嗡鸣声
type AudioConfig struct {
	Enabled    bool    `yaml:"enabled" env:"ORBGALLERY_AUDIO_ENABLED"`
	Frequency  float64 `yaml:"frequency"`
	Volume     float64 `yaml:"volume"`
	SampleRate int     `yaml:"sampleRate"`
}

// WindowConfig 窗口与相机
type WindowConfig struct {
	Width         int        `yaml:"width" env:"ORBGALLERY_WINDOW_WIDTH"`
	Height        int        `yaml:"height" env:"ORBGALLERY_WINDOW_HEIGHT"`
	Title         string     `yaml:"title"`
	PixelsPerUnit float64    `yaml:"pixelsPerUnit"`
	Origin        utils.Vec3 `yaml:"origin"` // 屏幕中心对应的世界坐标
}

// DefaultInstallationConfig 代码内置默认值（没有任何配置文件时使用）
func DefaultInstallationConfig() *InstallationConfig {
	return &InstallationConfig{
		Shelves: ShelvesConfig{
			Anchor:     utils.V3(0, 0, -3),
			Trigger:    TriggerConfig{Shape: "box", HalfExtents: utils.V3(3, 2.5, 1), Offset: utils.V3(0, 1.5, 0)},
			Resolution: shelf.DefaultResolution,
		},
		Storage: StorageConfig{
			Policy:           string(shelf.PolicyBitmap),
			Mode:             "sequential",
			OnFull:           "drop",
			MoveDuration:     1.0,
			Ease:             "InOutQuad",
			ReleaseTolerance: shelf.DefaultReleaseTolerance,
		},
		Physics: PhysicsConfig{Gravity: 9.81},
		Library: LibraryConfig{Backend: "gdata", AppName: "orbgallery"},
		Upload: UploadConfig{
			Endpoint:    "http://localhost:5000/uploads",
			Timeout:     30 * time.Second,
			Concurrency: 4,
		},
		Audio:  AudioConfig{Frequency: 110, Volume: 0.2, SampleRate: 44100},
		Window: WindowConfig{Width: 1280, Height: 720, Title: "Orb Gallery", PixelsPerUnit: 120, Origin: utils.V3(0, 1.5, 0)},
	}
}

// LoadInstallationConfig 加载装置配置
//
// path 为空时读取内嵌的 data/installation.yaml；内嵌资源未初始化时只使用代码默认值。
func LoadInstallationConfig(path string) (*InstallationConfig, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case path != "":
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read installation config: %w", err)
		}
	case embedded.IsInitialized():
		data, err = embedded.ReadFile(DefaultConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded installation config: %w", err)
		}
	}
	return ParseInstallationConfig(data)
}

// ParseInstallationConfig 在默认值之上解析 YAML，叠加环境变量并校验
func ParseInstallationConfig(data []byte) (*InstallationConfig, error) {
	config := DefaultInstallationConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse installation config: %w", err)
		}
	}

	if err := ParseEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid installation config: %w", err)
	}
	return config, nil
}

// Validate 验证配置有效性
//
// 只拒绝无法解释的取值（未知策略、负时长等）。
// 控制点不足的曲线不算错误：对应货架被禁用并在构建场景时记录日志。
func (c *InstallationConfig) Validate() error {
	if _, err := shelf.ParsePolicy(c.Storage.Policy); err != nil {
		return err
	}
	if !oneOf(c.Storage.Mode, "", "sequential", "joined") {
		return fmt.Errorf("storage mode %q must be sequential or joined", c.Storage.Mode)
	}
	if !oneOf(c.Storage.OnFull, "", "drop", "requeue") {
		return fmt.Errorf("storage onFull %q must be drop or requeue", c.Storage.OnFull)
	}
	if c.Storage.MoveDuration < 0 {
		return fmt.Errorf("storage moveDuration must be >= 0, got %.2f", c.Storage.MoveDuration)
	}
	if _, err := utils.ParseEase(c.Storage.Ease); err != nil {
		return err
	}
	if c.Shelves.Resolution < 0 {
		return fmt.Errorf("shelves resolution must be >= 0, got %d", c.Shelves.Resolution)
	}
	if err := c.Shelves.Trigger.validate("shelves.trigger"); err != nil {
		return err
	}

	for i, p := range c.Projectors {
		for name, v := range map[string]float64{
			"fadeDuration":      p.FadeDuration,
			"lightFadeDuration": p.LightFadeDuration,
			"liftDuration":      p.LiftDuration,
			"vibrationPeriod":   p.VibrationPeriod,
			"returnDuration":    p.ReturnDuration,
		} {
			if v < 0 {
				return fmt.Errorf("projectors[%d].%s must be >= 0, got %.2f", i, name, v)
			}
		}
		if p.Radius <= 0 {
			return fmt.Errorf("projectors[%d].radius must be > 0", i)
		}
	}
	for i, p := range c.Pedestals {
		if !oneOf(p.Mode, "", "instant", "animated") {
			return fmt.Errorf("pedestals[%d].mode %q must be instant or animated", i, p.Mode)
		}
		if p.Radius <= 0 {
			return fmt.Errorf("pedestals[%d].radius must be > 0", i)
		}
	}
	for i, z := range c.ProjectionZones {
		if z.HalfExtents.X <= 0 || z.HalfExtents.Y <= 0 || z.HalfExtents.Z <= 0 {
			return fmt.Errorf("projectionZones[%d].halfExtents must be positive", i)
		}
	}
	if c.Showcase.Enabled && c.Showcase.Radius <= 0 {
		return fmt.Errorf("showcase.radius must be > 0")
	}

	if !oneOf(c.Library.Backend, "gdata", "sqlite") {
		return fmt.Errorf("library backend %q must be gdata or sqlite", c.Library.Backend)
	}
	if c.Library.Backend == "sqlite" && strings.TrimSpace(c.Library.Path) == "" {
		return fmt.Errorf("library path is required for the sqlite backend")
	}
	if c.Upload.Concurrency < 0 {
		return fmt.Errorf("upload concurrency must be >= 0, got %d", c.Upload.Concurrency)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	return nil
}

func (t TriggerConfig) validate(field string) error {
	switch t.Shape {
	case "", "sphere":
		if t.Radius <= 0 {
			return fmt.Errorf("%s.radius must be > 0 for a sphere trigger", field)
		}
	case "box":
		if t.HalfExtents.X <= 0 || t.HalfExtents.Y <= 0 || t.HalfExtents.Z <= 0 {
			return fmt.Errorf("%s.halfExtents must be positive for a box trigger", field)
		}
	default:
		return fmt.Errorf("%s.shape %q must be sphere or box", field, t.Shape)
	}
	return nil
}

func oneOf(s string, options ...string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}
