// Package audio 投影仪振动时的嗡鸣声
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"
)

// 默认参数
const (
	DefaultFrequency  = 110.0
	DefaultVolume     = 0.2
	DefaultSampleRate = 44100

	// 嗡鸣声的幅度颤动频率，与光球振动周期（0.25s 往返）一致
	tremoloHz = 2.0
)

// humOscillator 带轻微颤音的无限正弦波
type humOscillator struct {
	freq  float64
	rate  beep.SampleRate
	phase float64
	trem  float64
}

// NewHumOscillator 创建嗡鸣振荡器（永不结束）
func NewHumOscillator(freq float64, rate beep.SampleRate) beep.Streamer {
	return &humOscillator{freq: freq, rate: rate}
}

func (o *humOscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		// 基频 + 一个八度的弱泛音
		val := 0.8*math.Sin(2*math.Pi*o.phase) + 0.2*math.Sin(4*math.Pi*o.phase)
		val *= 0.75 + 0.25*math.Sin(2*math.Pi*o.trem)

		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.trem += tremoloHz / float64(o.rate)
		o.trem -= math.Floor(o.trem)
	}
	return len(samples), true
}

func (o *humOscillator) Err() error { return nil }

// Mixer 接收流的混音器（*beep.Mixer）
type Mixer interface {
	Add(s ...beep.Streamer)
}

// Hum 可开关的嗡鸣声，实现投影仪的 Effect 接口
type Hum struct {
	lock   sync.Locker
	ctrl   *beep.Ctrl
	logger *zap.Logger
}

// NewHum 把嗡鸣声加入 mixer，初始为暂停
//
// lock 保护 ctrl 的 Paused 字段，与音频回调线程同步；接 speaker 时使用 SpeakerLock。
func NewHum(mixer Mixer, lock sync.Locker, freq, volume float64, rate beep.SampleRate, logger *zap.Logger) *Hum {
	if freq <= 0 {
		freq = DefaultFrequency
	}
	if volume <= 0 {
		volume = DefaultVolume
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	gain := &effects.Gain{
		Streamer: NewHumOscillator(freq, rate),
		Gain:     volume - 1,
	}
	ctrl := &beep.Ctrl{Streamer: gain, Paused: true}

	lock.Lock()
	mixer.Add(ctrl)
	lock.Unlock()

	return &Hum{lock: lock, ctrl: ctrl, logger: logger.Named("hum")}
}

// SetActive 开始或停止嗡鸣
func (h *Hum) SetActive(active bool) {
	h.lock.Lock()
	changed := h.ctrl.Paused == active
	h.ctrl.Paused = !active
	h.lock.Unlock()

	if changed {
		h.logger.Debug("hum toggled", zap.Bool("active", active))
	}
}

// Active 是否正在发声
func (h *Hum) Active() bool {
	h.lock.Lock()
	defer h.lock.Unlock()
	return !h.ctrl.Paused
}

// SpeakerLock 用 speaker.Lock/Unlock 实现 sync.Locker
type SpeakerLock struct{}

func (SpeakerLock) Lock()   { speaker.Lock() }
func (SpeakerLock) Unlock() { speaker.Unlock() }

// Output 扬声器输出
type Output struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	rate        beep.SampleRate
	initialized bool
}

// NewOutput 创建扬声器输出
func NewOutput(sampleRate int) *Output {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Output{mixer: &beep.Mixer{}, rate: beep.SampleRate(sampleRate)}
}

// Initialize 打开扬声器并开始播放混音器
func (o *Output) Initialize() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.initialized {
		return nil
	}
	if err := speaker.Init(o.rate, o.rate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(o.mixer)
	o.initialized = true
	return nil
}

// NewHum 在扬声器上创建嗡鸣声
func (o *Output) NewHum(freq, volume float64, logger *zap.Logger) *Hum {
	return NewHum(o.mixer, SpeakerLock{}, freq, volume, o.rate, logger)
}

// Close 停止所有声音
func (o *Output) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.initialized {
		return
	}
	speaker.Lock()
	o.mixer.Clear()
	speaker.Unlock()
	o.initialized = false
}
