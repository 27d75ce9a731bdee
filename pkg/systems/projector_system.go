package systems

import (
	"go.uber.org/zap"

	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/utils"
)

// ProjectorState 投影区状态
type ProjectorState string

const (
	// ProjectorIdle 没有会话
	ProjectorIdle ProjectorState = "idle"
	// ProjectorPresenting 正在展示某个光球的内容
	ProjectorPresenting ProjectorState = "presenting"
)

// MediaKind 当前会话展示的内容类型
type MediaKind string

const (
	MediaNone  MediaKind = ""
	MediaVideo MediaKind = "video"
	MediaImage MediaKind = "image"
)

// MediaPlayer 视频播放器
type MediaPlayer interface {
	Play(path string) error
	Stop()
	IsPlaying() bool
}

// Screen 投影幕布
type Screen interface {
	ShowImage(path string)
	ShowVideo(path string, width, height int)
	Clear()
	SetAlpha(alpha float64)
}

// Effect 可开关的附加效果（光束粒子、光锥网格、嗡鸣声）
type Effect interface {
	SetActive(active bool)
}

// Light 可调强度的灯光
type Light interface {
	SetIntensity(intensity float64)
}

// ProjectorRig 投影区的外部协作者，任何一项都可以为 nil（对应效果被跳过）
type ProjectorRig struct {
	Player      MediaPlayer
	Screen      Screen
	Beam        Effect
	Cone        Effect
	Hum         Effect
	Directional Light // 展示时淡出
	Point       Light // 展示时淡入
}

// ProjectorOptions 投影时间线参数
type ProjectorOptions struct {
	FadeDuration         float64 // 幕布淡入淡出（秒）
	LightFadeDuration    float64 // 灯光交叉淡变（秒）
	DirectionalIntensity float64
	PointIntensity       float64
	LiftHeight           float64 // 振动开始前的抬升高度（米）
	LiftDuration         float64
	VibrationAmplitude   float64 // 振动幅度（米）
	VibrationPeriod      float64 // 半个振动周期（秒）
	ReturnDuration       float64 // 结束后回到原高度（秒）
	RenderWidth          int
	RenderHeight         int
}

// DefaultProjectorOptions 默认时间线
func DefaultProjectorOptions() ProjectorOptions {
	return ProjectorOptions{
		FadeDuration:         1.0,
		LightFadeDuration:    1.0,
		DirectionalIntensity: 1.0,
		PointIntensity:       2.0,
		LiftHeight:           0.3,
		LiftDuration:         0.5,
		VibrationAmplitude:   0.05,
		VibrationPeriod:      0.25,
		ReturnDuration:       0.5,
		RenderWidth:          1920,
		RenderHeight:         1080,
	}
}

// ProjectorSystem 投影区状态机（每个投影区一个实例）
//
// 状态转换：
//
//	Idle --光球进入--> Presenting --光球离开 / 点击光球--> Idle
//
// 进入时选择内容（视频优先于图片，都没有则警告并回到 Idle），幕布透明度从 0 淡入到 1，
// 淡入完成后开启光束、光锥、灯光交叉淡变、光球发光，并让光球抬升后持续上下振动。
// 抬升动画进行中 Vibrating 为 true，此时的离开事件被推迟到抬升结束后执行。
//
// 所有异步步骤都由补间完成回调驱动，回调通过会话编号判断自己是否已过期。
type ProjectorSystem struct {
	entityManager *ecs.EntityManager
	tweens        *TweenSystem
	zone          ecs.EntityID
	rig           ProjectorRig
	opts          ProjectorOptions
	logger        *zap.Logger

	state       ProjectorState
	subject     ecs.EntityID
	media       MediaKind
	session     uint64
	vibrating   bool
	pendingExit bool
	restY       float64

	alpha      float64
	lightMix   float64
	alphaTween *Tween
	lightTween *Tween
	liftTween  *Tween
	vibeTween  *Tween

	warned map[string]bool
}

// NewProjectorSystem 创建投影区状态机
func NewProjectorSystem(em *ecs.EntityManager, tweens *TweenSystem, zone ecs.EntityID, rig ProjectorRig, opts ProjectorOptions, logger *zap.Logger) *ProjectorSystem {
	s := &ProjectorSystem{
		entityManager: em,
		tweens:        tweens,
		zone:          zone,
		rig:           rig,
		opts:          opts,
		logger:        namedLogger(logger, "projector").With(zap.Uint64("zone", uint64(zone))),
		state:         ProjectorIdle,
		warned:        make(map[string]bool),
	}
	if rig.Screen == nil {
		s.warnMissing("screen")
	}
	s.setAlpha(0)
	s.setLightMix(0)
	return s
}

// State 当前状态
func (s *ProjectorSystem) State() ProjectorState { return s.state }

// Subject 当前会话的光球，Idle 时为 NoEntity
func (s *ProjectorSystem) Subject() ecs.EntityID { return s.subject }

// Vibrating 抬升动画是否进行中
func (s *ProjectorSystem) Vibrating() bool { return s.vibrating }

// ExitPending 是否有被推迟的离开
func (s *ProjectorSystem) ExitPending() bool { return s.pendingExit }

// ScreenAlpha 幕布透明度
func (s *ProjectorSystem) ScreenAlpha() float64 { return s.alpha }

// LightMix 灯光交叉淡变进度（0 = 只有平行光，1 = 只有点光源）
func (s *ProjectorSystem) LightMix() float64 { return s.lightMix }

// Media 当前展示的内容类型
func (s *ProjectorSystem) Media() MediaKind { return s.media }

// Zone 投影区实体
func (s *ProjectorSystem) Zone() ecs.EntityID { return s.zone }

// SetOptions 更新时间线参数（配置热加载），下一次会话生效
func (s *ProjectorSystem) SetOptions(opts ProjectorOptions) {
	s.opts = opts
}

// OnTriggerEnter 光球进入投影区
func (s *ProjectorSystem) OnTriggerEnter(volume, other ecs.EntityID) {
	s.Enter(other)
}

// OnTriggerExit 光球离开投影区
func (s *ProjectorSystem) OnTriggerExit(volume, other ecs.EntityID) {
	s.Exit(other)
}

// OnOrbClicked 点击光球提前结束会话
func (s *ProjectorSystem) OnOrbClicked(orb ecs.EntityID) {
	s.Click(orb)
}

// Enter 开始展示 orb 的内容；已有会话时忽略
//
// 当前光球在振动启动期间离开又回到区域时，撤销推迟的离开，会话继续。
func (s *ProjectorSystem) Enter(orb ecs.EntityID) bool {
	if s.state == ProjectorPresenting && orb == s.subject && s.pendingExit {
		s.pendingExit = false
		s.logger.Debug("orb came back, deferred exit cancelled", zap.Uint64("orb", uint64(orb)))
		return false
	}
	if s.state != ProjectorIdle {
		s.logger.Debug("projector busy, ignoring orb", zap.Uint64("orb", uint64(orb)), zap.Uint64("subject", uint64(s.subject)))
		return false
	}
	orbComp, ok := ecs.GetComponent[*components.OrbComponent](s.entityManager, orb)
	if !ok {
		return false
	}

	s.session++
	s.state = ProjectorPresenting
	s.subject = orb
	s.pendingExit = false

	if rb, ok := ecs.GetComponent[*components.RigidBodyComponent](s.entityManager, orb); ok {
		rb.Freeze()
	}
	if tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, orb); ok {
		s.restY = tr.Position.Y
	}

	s.media = s.startMedia(orbComp)
	if s.media == MediaNone {
		s.logger.Warn("orb has no image or video, nothing to project", zap.Uint64("orb", uint64(orb)))
		if rb, ok := ecs.GetComponent[*components.RigidBodyComponent](s.entityManager, orb); ok && !orbComp.Grabbed {
			rb.Release()
		}
		s.reset()
		return false
	}

	s.logger.Info("presentation started", zap.Uint64("orb", uint64(orb)), zap.String("media", string(s.media)))

	token := s.session
	s.fadeScreen(0, 1).OnComplete(func() {
		if s.session == token {
			s.startEffects(token)
		}
	})
	return true
}

// startMedia 选择并开始播放内容，视频优先
func (s *ProjectorSystem) startMedia(orb *components.OrbComponent) MediaKind {
	rec := orb.Record
	if rec == nil {
		return MediaNone
	}

	if rec.HasVideo() {
		if s.rig.Player == nil {
			s.warnMissing("video player")
		} else if err := s.rig.Player.Play(rec.VideoPath); err != nil {
			s.logger.Error("failed to play video", zap.String("path", rec.VideoPath), zap.Error(err))
		} else {
			if s.rig.Screen != nil {
				s.rig.Screen.ShowVideo(rec.VideoPath, s.opts.RenderWidth, s.opts.RenderHeight)
			}
			return MediaVideo
		}
	}

	if rec.HasImage() {
		if s.rig.Screen == nil {
			s.warnMissing("screen")
			return MediaNone
		}
		s.rig.Screen.ShowImage(rec.ImagePath)
		return MediaImage
	}
	return MediaNone
}

// startEffects 幕布淡入完成后开启附加效果并开始振动
func (s *ProjectorSystem) startEffects(token uint64) {
	s.setEffect("beam", s.rig.Beam, true)
	s.setEffect("cone", s.rig.Cone, true)
	s.crossfadeLights(1)

	if orb, ok := ecs.GetComponent[*components.OrbComponent](s.entityManager, s.subject); ok {
		orb.Glowing = true
	}

	tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, s.subject)
	if !ok {
		return
	}

	s.vibrating = true
	top := s.restY + s.opts.LiftHeight
	s.liftTween = s.tweens.MoveY(s.subject, tr.Position.Y, top, s.opts.LiftDuration, utils.EaseOutCubic).OnComplete(func() {
		if s.session != token {
			return
		}
		s.vibrating = false
		if s.pendingExit {
			s.logger.Debug("applying deferred exit", zap.Uint64("orb", uint64(s.subject)))
			s.exit()
			return
		}
		s.setEffect("hum", s.rig.Hum, true)
		s.vibeTween = s.tweens.MoveY(s.subject, top, top+s.opts.VibrationAmplitude, s.opts.VibrationPeriod, utils.EaseInOutSine).
			SetLoops(-1, true)
	})
}

// Update 抬升动画被其他动画打断（例如光球被抓起）时结束 Vibrating 并执行推迟的离开
func (s *ProjectorSystem) Update(deltaTime float64) {
	if !s.vibrating || s.liftTween == nil {
		return
	}
	if s.liftTween.IsActive() || s.liftTween.IsComplete() {
		return
	}
	s.vibrating = false
	s.logger.Debug("lift interrupted", zap.Uint64("orb", uint64(s.subject)))
	if s.pendingExit {
		s.exit()
	}
}

// Exit 光球离开投影区；只处理当前会话的光球
func (s *ProjectorSystem) Exit(orb ecs.EntityID) bool {
	if s.state != ProjectorPresenting || orb != s.subject {
		return false
	}
	if s.vibrating {
		s.pendingExit = true
		s.logger.Debug("orb is vibrating, exit deferred", zap.Uint64("orb", uint64(orb)))
		return false
	}
	s.exit()
	return true
}

// Click 展示中点击当前光球，与离开走同一个流程
func (s *ProjectorSystem) Click(orb ecs.EntityID) bool {
	if s.state != ProjectorPresenting || orb != s.subject {
		return false
	}
	return s.Exit(orb)
}

// exit 结束会话：停止播放、淡出幕布、停止振动并关闭效果
func (s *ProjectorSystem) exit() {
	orb := s.subject
	s.session++
	token := s.session

	if s.rig.Player != nil && s.rig.Player.IsPlaying() {
		s.rig.Player.Stop()
	}
	s.fadeScreen(s.alpha, 0).OnComplete(func() {
		if s.session == token && s.rig.Screen != nil {
			s.rig.Screen.Clear()
		}
	})

	s.liftTween.Kill()
	s.vibeTween.Kill()
	orbComp, hasOrb := ecs.GetComponent[*components.OrbComponent](s.entityManager, orb)
	if hasOrb {
		orbComp.Glowing = false
	}
	if tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, orb); ok && hasOrb && !orbComp.Grabbed {
		s.tweens.MoveY(orb, tr.Position.Y, s.restY, s.opts.ReturnDuration, utils.EaseOutCubic).OnComplete(func() {
			if o, ok := ecs.GetComponent[*components.OrbComponent](s.entityManager, orb); ok && o.Grabbed {
				return
			}
			if rb, ok := ecs.GetComponent[*components.RigidBodyComponent](s.entityManager, orb); ok {
				rb.Release()
			}
		})
	}

	s.setEffect("beam", s.rig.Beam, false)
	s.setEffect("cone", s.rig.Cone, false)
	s.setEffect("hum", s.rig.Hum, false)
	s.crossfadeLights(0)

	s.logger.Info("presentation ended", zap.Uint64("orb", uint64(orb)))
	s.reset()
}

func (s *ProjectorSystem) reset() {
	s.liftTween = nil
	s.vibeTween = nil
	s.state = ProjectorIdle
	s.subject = ecs.NoEntity
	s.media = MediaNone
	s.vibrating = false
	s.pendingExit = false
}

func (s *ProjectorSystem) fadeScreen(from, to float64) *Tween {
	s.alphaTween.Kill()
	s.setAlpha(from)
	s.alphaTween = s.tweens.Play(NewFloatTween(from, to, s.opts.FadeDuration, s.setAlpha))
	return s.alphaTween
}

func (s *ProjectorSystem) setAlpha(a float64) {
	s.alpha = a
	if s.rig.Screen != nil {
		s.rig.Screen.SetAlpha(a)
	}
}

func (s *ProjectorSystem) crossfadeLights(to float64) {
	if s.rig.Directional == nil && s.rig.Point == nil {
		s.warnMissing("lights")
	}
	s.lightTween.Kill()
	s.lightTween = s.tweens.Play(NewFloatTween(s.lightMix, to, s.opts.LightFadeDuration, s.setLightMix))
}

func (s *ProjectorSystem) setLightMix(m float64) {
	s.lightMix = m
	if s.rig.Directional != nil {
		s.rig.Directional.SetIntensity(utils.Lerp(s.opts.DirectionalIntensity, 0, m))
	}
	if s.rig.Point != nil {
		s.rig.Point.SetIntensity(utils.Lerp(0, s.opts.PointIntensity, m))
	}
}

func (s *ProjectorSystem) setEffect(name string, e Effect, active bool) {
	if e == nil {
		s.warnMissing(name)
		return
	}
	e.SetActive(active)
}

// warnMissing 缺少协作者时只记录一次
func (s *ProjectorSystem) warnMissing(name string) {
	if s.warned[name] {
		return
	}
	s.warned[name] = true
	s.logger.Warn("projector collaborator missing, effect skipped", zap.String("collaborator", name))
}
