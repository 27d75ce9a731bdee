// Package app 把装置场景的各个系统组装在一起
//
// 该包不依赖窗口和输入：根命令的 run（ebiten 窗口）、simulate（无界面脚本）
// 和 monitor（终端视图）都通过 New() 创建同一个 Installation，再按帧调用 Update。
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/config"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/entities"
	"github.com/decker502/orbgallery/pkg/shelf"
	"github.com/decker502/orbgallery/pkg/systems"
	"github.com/decker502/orbgallery/pkg/types"
	"github.com/decker502/orbgallery/pkg/utils"
)

// FrameDelta 固定帧间隔（秒）
const FrameDelta = 1.0 / 60.0

// Options 装置的外部协作者
type Options struct {
	// Rigs 按投影区名称提供的播放器、幕布、灯光等，未提供的投影区只运行状态机
	Rigs map[string]systems.ProjectorRig
	// Logger 可为 nil
	Logger *zap.Logger
}

// Installation 装置场景：实体管理器 + 全部系统
type Installation struct {
	cfg    *config.InstallationConfig
	logger *zap.Logger

	entityManager *ecs.EntityManager
	tweens        *systems.TweenSystem
	triggers      *systems.TriggerSystem
	physics       *systems.PhysicsSystem
	lifetime      *systems.LifetimeSystem
	interaction   *systems.InteractionSystem

	// 货架，所有曲线都无效时为 nil
	shelves     *shelf.Set
	shelfAnchor ecs.EntityID
	storage     *systems.StorageSystem

	projectors   []*systems.ProjectorSystem
	pedestals    []*systems.AnchorStorageSystem
	spawners     []*systems.ProjectionSpawnSystem
	showcase     *systems.ShowcaseSystem
	showcaseZone ecs.EntityID

	updates <-chan *config.InstallationConfig
	frame   uint64
}

// New 根据配置创建装置场景
//
// 配置中的局部问题（控制点不足的曲线等）只禁用对应部分并记录日志，
// 只有无法解释的取值（未知策略、未知缓动）才返回错误。
func New(cfg *config.InstallationConfig, opts Options) (*Installation, error) {
	if cfg == nil {
		cfg = config.DefaultInstallationConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	em := ecs.NewEntityManager()
	tweens := systems.NewTweenSystem(em)

	in := &Installation{
		cfg:           cfg,
		logger:        logger.Named("installation"),
		entityManager: em,
		tweens:        tweens,
		triggers:      systems.NewTriggerSystem(em, logger),
		physics:       systems.NewPhysicsSystem(em, cfg.Physics.Gravity, cfg.Physics.FloorY),
		lifetime:      systems.NewLifetimeSystem(em, logger),
		interaction:   systems.NewInteractionSystem(em, tweens, logger),
	}
	in.lifetime.OnExpire(func(id ecs.EntityID) {
		in.logger.Debug("projection expired", zap.Uint64("entity", uint64(id)))
	})

	if err := in.buildShelves(logger); err != nil {
		return nil, err
	}
	for _, pc := range cfg.Projectors {
		in.buildProjector(pc, opts.Rigs[pc.Name], logger)
	}
	for _, pc := range cfg.Pedestals {
		if err := in.buildPedestal(pc, logger); err != nil {
			return nil, err
		}
	}
	for _, zc := range cfg.ProjectionZones {
		in.buildProjectionZone(zc, logger)
	}
	if cfg.Showcase.Enabled {
		in.buildShowcase(cfg.Showcase, logger)
	}

	in.logger.Info("installation ready",
		zap.Int("slots", in.Capacity()),
		zap.Int("projectors", len(in.projectors)),
		zap.Int("pedestals", len(in.pedestals)),
		zap.Int("projectionZones", len(in.spawners)),
		zap.Bool("showcase", in.showcase != nil))
	return in, nil
}

// buildShelves 创建货架锚点、曲线槽位和收纳系统
func (in *Installation) buildShelves(logger *zap.Logger) error {
	sc := in.cfg.Shelves

	var curves []*shelf.Curve
	for i, cc := range sc.Curves {
		name := cc.Name
		if name == "" {
			name = fmt.Sprintf("shelf-%d", i)
		}
		curve, err := shelf.NewCurve(name, cc.Points, sc.Resolution)
		if err != nil {
			in.logger.Error("shelf disabled", zap.String("shelf", name), zap.Error(err))
			continue
		}
		curves = append(curves, curve)
	}
	if len(curves) == 0 {
		in.logger.Warn("no usable shelf curves, shelf storage disabled")
		return nil
	}

	policy, err := shelf.ParsePolicy(in.cfg.Storage.Policy)
	if err != nil {
		return err
	}
	in.shelves = shelf.NewSet(curves)
	allocator, err := shelf.NewAllocator(policy, in.shelves)
	if err != nil {
		return err
	}

	storageOpts, err := StorageOptionsFrom(in.cfg.Storage)
	if err != nil {
		return err
	}

	in.shelfAnchor = entities.NewStorageAnchor(in.entityManager, "shelves", sc.Anchor, TriggerFrom(sc.Trigger))
	in.storage = systems.NewStorageSystem(in.entityManager, in.tweens, allocator, in.shelfAnchor, storageOpts, logger)
	in.triggers.AddListener(in.shelfAnchor, in.storage)
	in.interaction.AddReleaser(in.storage)
	in.interaction.AddDropListener(in.storage)
	return nil
}

func (in *Installation) buildProjector(pc config.ProjectorConfig, rig systems.ProjectorRig, logger *zap.Logger) {
	zone := entities.NewTriggerZone(in.entityManager, pc.Position, components.NewSphereTrigger(pc.Radius))
	proj := systems.NewProjectorSystem(in.entityManager, in.tweens, zone, rig, ProjectorOptionsFrom(pc), logger.With(zap.String("projector", pc.Name)))
	in.triggers.AddListener(zone, proj)
	in.interaction.AddClickListener(proj)
	in.projectors = append(in.projectors, proj)
}

func (in *Installation) buildPedestal(pc config.PedestalConfig, logger *zap.Logger) error {
	mode, err := systems.ParseAnchorMode(pc.Mode)
	if err != nil {
		return err
	}
	anchor := entities.NewStorageAnchor(in.entityManager, pc.Name, pc.Position, components.NewSphereTrigger(pc.Radius))
	if tr, ok := ecs.GetComponent[*components.TransformComponent](in.entityManager, anchor); ok {
		tr.Rotation = pc.Rotation
	}
	sys := systems.NewAnchorStorageSystem(in.entityManager, in.tweens, anchor, mode, pc.Duration, logger.With(zap.String("pedestal", pc.Name)))
	in.triggers.AddListener(anchor, sys)
	in.interaction.AddReleaser(sys)
	in.interaction.AddDropListener(sys)
	in.pedestals = append(in.pedestals, sys)
	return nil
}

func (in *Installation) buildProjectionZone(zc config.ProjectionZoneConfig, logger *zap.Logger) {
	zone := entities.NewTriggerZone(in.entityManager, zc.Position, components.NewBoxTrigger(zc.HalfExtents))
	sys := systems.NewProjectionSpawnSystem(in.entityManager, zone, zc.Lifetime, logger.With(zap.String("zone", zc.Name)))
	in.triggers.AddListener(zone, sys)
	in.spawners = append(in.spawners, sys)
}

func (in *Installation) buildShowcase(sc config.ShowcaseConfig, logger *zap.Logger) {
	zone := entities.NewTriggerZone(in.entityManager, sc.Position, components.NewSphereTrigger(sc.Radius))
	ecs.AddComponent(in.entityManager, zone, &components.ShowcaseComponent{
		ViewerPosition: sc.ViewerPosition,
		ViewerForward:  sc.ViewerForward,
		ViewerUp:       sc.ViewerUp,
		ViewerRight:    sc.ViewerRight,
		TargetOffset:   sc.Offset,
		TargetScale:    sc.Scale,
		Duration:       sc.Duration,
	})
	in.showcase = systems.NewShowcaseSystem(in.entityManager, in.tweens, zone, logger)
	in.showcaseZone = zone
	in.triggers.AddListener(zone, in.showcase)
}

// Watch 接收热更新的配置，在下一次 Update 开始时应用
func (in *Installation) Watch(updates <-chan *config.InstallationConfig) {
	in.updates = updates
}

// ApplyConfig 应用可热更新的参数
//
// 只更新时间线类参数（收纳动画、投影时间线、重力）；
// 货架形状、投影区数量等结构性变化需要重启。
func (in *Installation) ApplyConfig(cfg *config.InstallationConfig) {
	if cfg == nil {
		return
	}
	if in.storage != nil {
		if opts, err := StorageOptionsFrom(cfg.Storage); err == nil {
			in.storage.SetTiming(opts.MoveDuration, opts.Ease)
		} else {
			in.logger.Warn("ignoring storage update", zap.Error(err))
		}
	}
	for i, proj := range in.projectors {
		if i < len(cfg.Projectors) {
			proj.SetOptions(ProjectorOptionsFrom(cfg.Projectors[i]))
		}
	}
	in.physics.SetGravity(cfg.Physics.Gravity)

	in.cfg = cfg
	in.logger.Info("configuration reloaded")
}

// Update 推进一帧
func (in *Installation) Update(deltaTime float64) {
	in.drainUpdates()

	in.physics.Update(deltaTime)
	in.tweens.Update(deltaTime)
	in.triggers.Update(deltaTime)

	if in.storage != nil {
		in.storage.Update(deltaTime)
	}
	for _, proj := range in.projectors {
		proj.Update(deltaTime)
	}
	if in.showcase != nil {
		in.showcase.Update(deltaTime)
	}

	in.lifetime.Update(deltaTime)
	in.entityManager.RemoveMarkedEntities()
	in.frame++
}

func (in *Installation) drainUpdates() {
	if in.updates == nil {
		return
	}
	for {
		select {
		case cfg, ok := <-in.updates:
			if !ok {
				in.updates = nil
				return
			}
			in.ApplyConfig(cfg)
		default:
			return
		}
	}
}

// SpawnOrb 在 pos 处创建一个光球
func (in *Installation) SpawnOrb(rec types.OrbRecord, pos utils.Vec3) ecs.EntityID {
	id := entities.NewOrbEntity(in.entityManager, rec, pos, entities.DefaultOrbRadius)
	in.logger.Debug("orb spawned", zap.Uint64("orb", uint64(id)), zap.String("name", rec.Name), zap.Stringer("pos", pos))
	return id
}

// Orbs 场景中全部光球（升序）
func (in *Installation) Orbs() []ecs.EntityID {
	return ecs.GetEntitiesWith1[*components.OrbComponent](in.entityManager)
}

// Capacity 货架槽位总数（货架禁用时为 0）
func (in *Installation) Capacity() int {
	if in.shelves == nil {
		return 0
	}
	return in.shelves.Capacity()
}

// Frame 已推进的帧数
func (in *Installation) Frame() uint64 { return in.frame }

// Config 当前配置
func (in *Installation) Config() *config.InstallationConfig { return in.cfg }

// EntityManager 实体管理器
func (in *Installation) EntityManager() *ecs.EntityManager { return in.entityManager }

// Tweens 补间系统
func (in *Installation) Tweens() *systems.TweenSystem { return in.tweens }

// Interaction 抓取/点击
func (in *Installation) Interaction() *systems.InteractionSystem { return in.interaction }

// Shelves 货架槽位（可能为 nil）
func (in *Installation) Shelves() *shelf.Set { return in.shelves }

// ShelfAnchor 货架锚点实体
func (in *Installation) ShelfAnchor() ecs.EntityID { return in.shelfAnchor }

// Storage 货架收纳系统（可能为 nil）
func (in *Installation) Storage() *systems.StorageSystem { return in.storage }

// Projectors 全部投影区
func (in *Installation) Projectors() []*systems.ProjectorSystem { return in.projectors }

// Pedestals 全部单点收纳台
func (in *Installation) Pedestals() []*systems.AnchorStorageSystem { return in.pedestals }

// ProjectionZones 全部一次性投影区
func (in *Installation) ProjectionZones() []*systems.ProjectionSpawnSystem { return in.spawners }

// Showcase 展示台（未启用时为 nil）
func (in *Installation) Showcase() *systems.ShowcaseSystem { return in.showcase }

// ShowcaseZone 展示台区域实体
func (in *Installation) ShowcaseZone() ecs.EntityID { return in.showcaseZone }

// TriggerFrom 把配置转换为触发区域组件
func TriggerFrom(tc config.TriggerConfig) *components.TriggerVolumeComponent {
	var v *components.TriggerVolumeComponent
	if tc.Shape == "box" {
		v = components.NewBoxTrigger(tc.HalfExtents)
	} else {
		v = components.NewSphereTrigger(tc.Radius)
	}
	v.Offset = tc.Offset
	return v
}

// StorageOptionsFrom 把配置转换为收纳参数
func StorageOptionsFrom(sc config.StorageConfig) (systems.StorageOptions, error) {
	mode, err := systems.ParseStorageMode(sc.Mode)
	if err != nil {
		return systems.StorageOptions{}, err
	}
	onFull, err := systems.ParseFullPolicy(sc.OnFull)
	if err != nil {
		return systems.StorageOptions{}, err
	}
	ease, err := utils.ParseEase(sc.Ease)
	if err != nil {
		return systems.StorageOptions{}, err
	}
	return systems.StorageOptions{
		Mode:             mode,
		OnFull:           onFull,
		MoveDuration:     sc.MoveDuration,
		Ease:             ease,
		ReleaseTolerance: sc.ReleaseTolerance,
	}, nil
}

// ProjectorOptionsFrom 把配置转换为投影时间线，未设置（0）的项使用默认值
func ProjectorOptionsFrom(pc config.ProjectorConfig) systems.ProjectorOptions {
	opts := systems.DefaultProjectorOptions()
	setIfPositive(&opts.FadeDuration, pc.FadeDuration)
	setIfPositive(&opts.LightFadeDuration, pc.LightFadeDuration)
	setIfPositive(&opts.DirectionalIntensity, pc.DirectionalIntensity)
	setIfPositive(&opts.PointIntensity, pc.PointIntensity)
	setIfPositive(&opts.LiftHeight, pc.LiftHeight)
	setIfPositive(&opts.LiftDuration, pc.LiftDuration)
	setIfPositive(&opts.VibrationAmplitude, pc.VibrationAmplitude)
	setIfPositive(&opts.VibrationPeriod, pc.VibrationPeriod)
	setIfPositive(&opts.ReturnDuration, pc.ReturnDuration)
	if pc.RenderWidth > 0 && pc.RenderHeight > 0 {
		opts.RenderWidth = pc.RenderWidth
		opts.RenderHeight = pc.RenderHeight
	}
	return opts
}

func setIfPositive(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}
