package utils

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// PointerSample 一帧的指针状态（鼠标左键或第一个触点）
type PointerSample struct {
	Pressed bool
	X, Y    int
	Touch   bool
}

// ReadPointer 读取当前帧的指针状态，优先使用触摸
func ReadPointer() PointerSample {
	if touchIDs := ebiten.AppendTouchIDs(nil); len(touchIDs) > 0 {
		x, y := ebiten.TouchPosition(touchIDs[0])
		return PointerSample{Pressed: true, X: x, Y: y, Touch: true}
	}
	x, y := ebiten.CursorPosition()
	return PointerSample{
		Pressed: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		X:       x,
		Y:       y,
	}
}

// DragState 拖拽状态
type DragState int

const (
	// DragStateNone 无拖拽
	DragStateNone DragState = iota
	// DragStateStarted 拖拽开始（刚按下），只持续一帧
	DragStateStarted
	// DragStateDragging 拖拽中（按住）
	DragStateDragging
	// DragStateEnded 拖拽结束（刚释放），只持续一帧
	DragStateEnded
)

// DragInfo 拖拽信息
type DragInfo struct {
	State DragState
	// StartX, StartY 按下位置（屏幕坐标）
	StartX, StartY int
	// CurrentX, CurrentY 当前位置（屏幕坐标）
	CurrentX, CurrentY int
	// Frames 按下以来经过的帧数
	Frames int
	// 按下以来离起点的最大距离的平方（像素²）
	maxDist2 int
}

// DragTracker 由逐帧采样驱动的拖拽状态机
//
//	None --按下--> Started --> Dragging --释放--> Ended --> None
type DragTracker struct {
	info DragInfo
}

// Update 输入一帧采样，返回更新后的拖拽信息
func (dt *DragTracker) Update(s PointerSample) DragInfo {
	switch dt.info.State {
	case DragStateNone, DragStateEnded:
		if s.Pressed {
			dt.info = DragInfo{
				State:    DragStateStarted,
				StartX:   s.X,
				StartY:   s.Y,
				CurrentX: s.X,
				CurrentY: s.Y,
			}
		} else {
			dt.info = DragInfo{State: DragStateNone}
		}

	case DragStateStarted, DragStateDragging:
		dt.info.Frames++
		if !s.Pressed {
			// 释放帧沿用最后一次按下时的位置（触摸释放后没有坐标）
			dt.info.State = DragStateEnded
			break
		}
		dt.info.State = DragStateDragging
		dt.info.CurrentX, dt.info.CurrentY = s.X, s.Y
		dx, dy := s.X-dt.info.StartX, s.Y-dt.info.StartY
		if d2 := dx*dx + dy*dy; d2 > dt.info.maxDist2 {
			dt.info.maxDist2 = d2
		}
	}
	return dt.info
}

// Info 当前拖拽信息
func (dt *DragTracker) Info() DragInfo {
	return dt.info
}

// IsTap 本次按下是否是一次轻点：移动不超过 slop 像素且不超过 maxFrames 帧
func (info DragInfo) IsTap(slop, maxFrames int) bool {
	return info.maxDist2 <= slop*slop && info.Frames <= maxFrames
}

// Reset 取消当前拖拽
func (dt *DragTracker) Reset() {
	dt.info = DragInfo{State: DragStateNone}
}
