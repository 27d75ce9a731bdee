package utils

import "testing"

func press(x, y int) PointerSample { return PointerSample{Pressed: true, X: x, Y: y} }

func release() PointerSample { return PointerSample{} }

func TestDragTrackerInitialState(t *testing.T) {
	var dt DragTracker
	if dt.Info().State != DragStateNone {
		t.Errorf("初始状态应为 DragStateNone，得到 %v", dt.Info().State)
	}
	if got := dt.Update(release()); got.State != DragStateNone {
		t.Errorf("未按下时应保持 DragStateNone，得到 %v", got.State)
	}
}

func TestDragTrackerLifecycle(t *testing.T) {
	var dt DragTracker

	steps := []struct {
		sample PointerSample
		want   DragState
	}{
		{press(10, 10), DragStateStarted},
		{press(12, 10), DragStateDragging},
		{press(40, 30), DragStateDragging},
		{release(), DragStateEnded},
		{release(), DragStateNone},
	}

	for i, s := range steps {
		got := dt.Update(s.sample)
		if got.State != s.want {
			t.Fatalf("第 %d 帧: 状态 %v, 期望 %v", i, got.State, s.want)
		}
	}
}

func TestDragTrackerEndedKeepsLastPosition(t *testing.T) {
	var dt DragTracker
	dt.Update(press(5, 5))
	dt.Update(press(50, 60))
	info := dt.Update(PointerSample{Pressed: false, X: 0, Y: 0})

	if info.CurrentX != 50 || info.CurrentY != 60 {
		t.Errorf("释放帧位置 = (%d, %d), 期望 (50, 60)", info.CurrentX, info.CurrentY)
	}
}

func TestDragTrackerTap(t *testing.T) {
	var dt DragTracker
	dt.Update(press(100, 100))
	dt.Update(press(102, 101))
	info := dt.Update(release())
	if !info.IsTap(5, 15) {
		t.Error("小范围快速按下释放应视为轻点")
	}

	dt.Update(press(100, 100))
	dt.Update(press(140, 100))
	info = dt.Update(release())
	if info.IsTap(5, 15) {
		t.Error("移动超过阈值不应视为轻点")
	}

	dt.Update(press(0, 0))
	for i := 0; i < 30; i++ {
		dt.Update(press(0, 0))
	}
	info = dt.Update(release())
	if info.IsTap(5, 15) {
		t.Error("按住过久不应视为轻点")
	}
}

func TestDragTrackerPressAfterEnded(t *testing.T) {
	var dt DragTracker
	dt.Update(press(1, 1))
	dt.Update(release())

	// Ended 的下一帧直接再次按下
	if got := dt.Update(press(9, 9)); got.State != DragStateStarted || got.StartX != 9 {
		t.Errorf("再次按下应开始新的拖拽，得到 %+v", got)
	}
}
