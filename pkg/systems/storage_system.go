package systems

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/shelf"
	"github.com/decker502/orbgallery/pkg/utils"
)

// StorageMode 队列处理方式
type StorageMode string

const (
	// StorageSequential 上一个光球到位后才取下一个
	StorageSequential StorageMode = "sequential"
	// StorageJoined 同一帧派发队列里所有光球，动画并行播放
	StorageJoined StorageMode = "joined"
)

// FullPolicy 货架已满时的处理方式
type FullPolicy string

const (
	// FullDrop 拒绝当前光球及其后排队的所有光球
	FullDrop FullPolicy = "drop"
	// FullRequeue 光球放回队首，等待有位置释放
	FullRequeue FullPolicy = "requeue"
)

// ParseStorageMode 解析配置中的处理方式，空字符串为 sequential
func ParseStorageMode(s string) (StorageMode, error) {
	switch StorageMode(s) {
	case "", StorageSequential:
		return StorageSequential, nil
	case StorageJoined:
		return StorageJoined, nil
	}
	return "", fmt.Errorf("unknown storage mode %q", s)
}

// ParseFullPolicy 解析配置中的满载策略，空字符串为 drop
func ParseFullPolicy(s string) (FullPolicy, error) {
	switch FullPolicy(s) {
	case "", FullDrop:
		return FullDrop, nil
	case FullRequeue:
		return FullRequeue, nil
	}
	return "", fmt.Errorf("unknown full policy %q", s)
}

// StorageOptions 货架收纳参数
type StorageOptions struct {
	Mode             StorageMode
	OnFull           FullPolicy
	MoveDuration     float64        // 上架动画时长（秒），默认 1
	Ease             utils.EaseFunc // 默认 EaseInOutQuad
	ReleaseTolerance float64        // 释放时的位置容差，默认 0.5
}

// DefaultStorageOptions 默认参数
func DefaultStorageOptions() StorageOptions {
	return StorageOptions{
		Mode:             StorageSequential,
		OnFull:           FullDrop,
		MoveDuration:     1.0,
		Ease:             utils.EaseInOutQuad,
		ReleaseTolerance: shelf.DefaultReleaseTolerance,
	}
}

func (o StorageOptions) withDefaults() StorageOptions {
	def := DefaultStorageOptions()
	if o.Mode == "" {
		o.Mode = def.Mode
	}
	if o.OnFull == "" {
		o.OnFull = def.OnFull
	}
	if o.MoveDuration < 0 {
		o.MoveDuration = 0
	}
	if o.Ease == nil {
		o.Ease = def.Ease
	}
	if o.ReleaseTolerance <= 0 {
		o.ReleaseTolerance = def.ReleaseTolerance
	}
	return o
}

// Assignment 一次分配记录
type Assignment struct {
	Orb  ecs.EntityID
	Slot shelf.Slot
}

// StorageSystem 曲线货架收纳
//
// 光球进入货架触发区域后排队，依次分配空位并用补间动画移动到位，
// 到位后 Transform.Parent 指向货架锚点（所有权转移）。
//
// 队列不变式：
//   - 同一个光球在 processed 中时不会再次入队
//   - sequential 模式下同一时刻最多一个光球在移动
type StorageSystem struct {
	entityManager *ecs.EntityManager
	tweens        *TweenSystem
	allocator     shelf.Allocator
	anchor        ecs.EntityID
	opts          StorageOptions
	logger        *zap.Logger

	queue       []ecs.EntityID
	processed   map[ecs.EntityID]bool
	inFlight    map[ecs.EntityID]*flight
	paused      bool
	assignments []Assignment
	rejected    []ecs.EntityID
}

type flight struct {
	slot  shelf.Slot
	tween *Tween
}

// NewStorageSystem 创建货架收纳系统
//
// anchor 是货架根节点实体（上架后的持有者）。
func NewStorageSystem(em *ecs.EntityManager, tweens *TweenSystem, allocator shelf.Allocator, anchor ecs.EntityID, opts StorageOptions, logger *zap.Logger) *StorageSystem {
	s := &StorageSystem{
		entityManager: em,
		tweens:        tweens,
		allocator:     allocator,
		anchor:        anchor,
		opts:          opts.withDefaults(),
		logger:        namedLogger(logger, "storage"),
		processed:     make(map[ecs.EntityID]bool),
		inFlight:      make(map[ecs.EntityID]*flight),
	}
	if allocator == nil || allocator.Capacity() == 0 {
		s.logger.Error("storage has no slots, orbs will be rejected")
	} else if allocator.Policy() == shelf.PolicyCursor && s.opts.OnFull == FullRequeue {
		s.logger.Warn("cursor policy never frees slots, requeued orbs will wait forever once shelves are full",
			zap.Int("capacity", allocator.Capacity()))
	}
	return s
}

// Anchor 货架锚点实体
func (s *StorageSystem) Anchor() ecs.EntityID {
	return s.anchor
}

// Options 当前参数
func (s *StorageSystem) Options() StorageOptions {
	return s.opts
}

// SetTiming 更新动画参数（配置热加载），对已开始的动画不生效
func (s *StorageSystem) SetTiming(moveDuration float64, ease utils.EaseFunc) {
	s.opts.MoveDuration = moveDuration
	s.opts.Ease = ease
	s.opts = s.opts.withDefaults()
}

// OnTriggerEnter 光球进入货架区域
func (s *StorageSystem) OnTriggerEnter(volume, other ecs.EntityID) {
	s.Enqueue(other)
}

// OnOrbDropped 光球在货架区域内被放下时入队
func (s *StorageSystem) OnOrbDropped(orb ecs.EntityID) {
	if vol, ok := ecs.GetComponent[*components.TriggerVolumeComponent](s.entityManager, s.anchor); ok && vol.Inside[orb] {
		s.Enqueue(orb)
	}
}

// OnTriggerExit 货架不关心离开事件，释放由抓取流程触发
func (s *StorageSystem) OnTriggerExit(volume, other ecs.EntityID) {}

// Enqueue 光球加入等待队列
//
// 已在 processed 集合中、或已经挂在本货架锚点下的光球会被忽略，返回 false。
func (s *StorageSystem) Enqueue(orb ecs.EntityID) bool {
	orbComp, ok := ecs.GetComponent[*components.OrbComponent](s.entityManager, orb)
	if !ok {
		return false
	}
	if orbComp.Grabbed {
		// 放下时由 OnOrbDropped 再次入队
		s.logger.Debug("orb is held, waiting for drop", zap.Uint64("orb", uint64(orb)))
		return false
	}
	if s.processed[orb] {
		s.logger.Debug("orb already processed, ignoring", zap.Uint64("orb", uint64(orb)))
		return false
	}
	if tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, orb); ok && s.anchor != ecs.NoEntity && tr.Parent == s.anchor {
		s.logger.Debug("orb already on shelf, ignoring", zap.Uint64("orb", uint64(orb)))
		return false
	}

	s.processed[orb] = true
	s.queue = append(s.queue, orb)
	s.logger.Info("orb queued", zap.Uint64("orb", uint64(orb)), zap.Int("pending", len(s.queue)))

	s.ProcessQueue()
	return true
}

// ProcessQueue 派发队列中的光球
//
// sequential 模式下有光球在移动时直接返回，动画完成回调会再次调用；
// 货架满且策略为 requeue 时暂停，直到 Update 发现有空位。
func (s *StorageSystem) ProcessQueue() {
	if s.paused {
		return
	}
	for len(s.queue) > 0 {
		if s.opts.Mode == StorageSequential && len(s.inFlight) > 0 {
			return
		}

		orb := s.queue[0]
		s.queue = s.queue[1:]

		if !ecs.HasComponent[*components.TransformComponent](s.entityManager, orb) {
			// 排队期间被销毁
			delete(s.processed, orb)
			continue
		}

		if s.allocator == nil {
			s.handleFull(orb)
			return
		}
		slot, ok := s.allocator.Acquire(orb)
		if !ok {
			s.handleFull(orb)
			return
		}

		if rb, ok := ecs.GetComponent[*components.RigidBodyComponent](s.entityManager, orb); ok {
			rb.Freeze()
		}

		s.assignments = append(s.assignments, Assignment{Orb: orb, Slot: slot})
		s.logger.Info("slot assigned",
			zap.Uint64("orb", uint64(orb)),
			zap.Int("shelf", slot.ShelfIndex),
			zap.Int("position", slot.PositionIndex),
			zap.Stringer("target", slot.Position))

		f := &flight{slot: slot}
		s.inFlight[orb] = f
		f.tween = s.tweens.Move(orb, slot.Position, s.opts.MoveDuration, s.opts.Ease).
			OnComplete(func() { s.settle(orb, f) })
	}
}

// settle 上架动画完成：转移所有权并对齐到槽位
func (s *StorageSystem) settle(orb ecs.EntityID, f *flight) {
	if s.inFlight[orb] != f {
		return
	}
	delete(s.inFlight, orb)

	if tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, orb); ok {
		tr.Parent = s.anchor
		tr.Position = f.slot.Position
		tr.Rotation = utils.Vec3{}
	}
	s.logger.Debug("orb settled", zap.Uint64("orb", uint64(orb)), zap.Uint64("anchor", uint64(s.anchor)))

	s.ProcessQueue()
}

func (s *StorageSystem) handleFull(orb ecs.EntityID) {
	switch s.opts.OnFull {
	case FullRequeue:
		s.queue = append([]ecs.EntityID{orb}, s.queue...)
		s.paused = true
		s.logger.Warn("all shelves are full, waiting for a free slot", zap.Int("pending", len(s.queue)))
	default:
		dropped := append([]ecs.EntityID{orb}, s.queue...)
		s.queue = nil
		for _, id := range dropped {
			delete(s.processed, id)
		}
		s.rejected = append(s.rejected, dropped...)
		s.logger.Warn("all shelves are full, orbs rejected", zap.Int("rejected", len(dropped)))
	}
}

// ReleaseOrb 光球离开货架（被抓起），释放其槽位
//
// 按光球当前位置查找容差内的槽位并释放；仍在移动中的光球按目标槽位释放并终止动画。
// cursor 策略下槽位不会被释放，但光球会移出 processed 集合以便再次入队。
// 不属于本货架（未入队、未挂在锚点下）的光球直接返回 false。
func (s *StorageSystem) ReleaseOrb(orb ecs.EntityID) bool {
	tr, hasTransform := ecs.GetComponent[*components.TransformComponent](s.entityManager, orb)
	onShelf := hasTransform && s.anchor != ecs.NoEntity && tr.Parent == s.anchor
	wasTracked := s.processed[orb]
	if !wasTracked && !onShelf {
		// 不属于本货架的光球
		return false
	}

	delete(s.processed, orb)
	s.removeFromQueue(orb)
	if onShelf {
		tr.Parent = ecs.NoEntity
	}

	if s.allocator == nil {
		return false
	}

	var pos utils.Vec3
	if f, ok := s.inFlight[orb]; ok {
		f.tween.Kill()
		delete(s.inFlight, orb)
		pos = f.slot.Position
		defer s.ProcessQueue()
	} else if hasTransform {
		pos = tr.Position
	} else {
		return false
	}

	slot, ok := s.allocator.Release(orb, pos, s.opts.ReleaseTolerance)
	if !ok {
		s.logger.Debug("no slot released", zap.Uint64("orb", uint64(orb)), zap.String("policy", string(s.allocator.Policy())))
		return false
	}
	s.logger.Info("slot released",
		zap.Uint64("orb", uint64(orb)),
		zap.Int("shelf", slot.ShelfIndex),
		zap.Int("position", slot.PositionIndex))
	return true
}

// recoverInterrupted 上架动画被其他系统终止（例如展示台接管了光球）时释放目标槽位
func (s *StorageSystem) recoverInterrupted() bool {
	var interrupted []ecs.EntityID
	for orb, f := range s.inFlight {
		if !f.tween.IsActive() && !f.tween.IsComplete() {
			interrupted = append(interrupted, orb)
		}
	}
	sort.Slice(interrupted, func(i, j int) bool { return interrupted[i] < interrupted[j] })

	for _, orb := range interrupted {
		f := s.inFlight[orb]
		delete(s.inFlight, orb)
		delete(s.processed, orb)
		if s.allocator != nil {
			s.allocator.Release(orb, f.slot.Position, s.opts.ReleaseTolerance)
		}
		s.logger.Warn("move to shelf interrupted, slot released",
			zap.Uint64("orb", uint64(orb)),
			zap.Int("shelf", f.slot.ShelfIndex),
			zap.Int("position", f.slot.PositionIndex))
	}
	return len(interrupted) > 0
}

func (s *StorageSystem) removeFromQueue(orb ecs.EntityID) {
	for i, id := range s.queue {
		if id == orb {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

// Update 回收被外部终止的上架动画；满载暂停时检查是否有空位
func (s *StorageSystem) Update(deltaTime float64) {
	if s.recoverInterrupted() && !s.paused {
		s.ProcessQueue()
	}
	if !s.paused || s.allocator == nil {
		return
	}
	if s.allocator.Occupied() < s.allocator.Capacity() {
		s.paused = false
		s.logger.Info("slot available, resuming queue", zap.Int("pending", len(s.queue)))
		s.ProcessQueue()
	}
}

// Pending 等待分配的光球（队列顺序）
func (s *StorageSystem) Pending() []ecs.EntityID {
	out := make([]ecs.EntityID, len(s.queue))
	copy(out, s.queue)
	return out
}

// Processing 是否有光球正在上架
func (s *StorageSystem) Processing() bool {
	return len(s.inFlight) > 0
}

// Paused 是否因货架满而暂停
func (s *StorageSystem) Paused() bool {
	return s.paused
}

// IsTracked 光球是否在 processed 集合中
func (s *StorageSystem) IsTracked(orb ecs.EntityID) bool {
	return s.processed[orb]
}

// Assignments 历次分配记录（分配顺序）
func (s *StorageSystem) Assignments() []Assignment {
	out := make([]Assignment, len(s.assignments))
	copy(out, s.assignments)
	return out
}

// Rejected 因货架满被拒绝的光球
func (s *StorageSystem) Rejected() []ecs.EntityID {
	out := make([]ecs.EntityID, len(s.rejected))
	copy(out, s.rejected)
	return out
}

// Allocator 使用的槽位分配器
func (s *StorageSystem) Allocator() shelf.Allocator {
	return s.allocator
}
