package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type frameMsg struct{}

type timerMsg struct {
	id uint64
}

// frameScheduler 把滚动状态机的调度需求映射到 Bubble Tea：帧与定时器都变成 tick 命令，
// 回调在 Update 中执行，因此与模型的其他状态处于同一事件线程。
//
// 调用方在每次 Update 结束时取走 Drain 返回的命令。
type frameScheduler struct {
	interval     time.Duration
	frames       []func()
	observations []func()
	tickQueued   bool
	timers       map[uint64]func()
	nextTimer    uint64
	pending      []tea.Cmd
}

func newFrameScheduler(interval time.Duration) *frameScheduler {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &frameScheduler{interval: interval, timers: map[uint64]func(){}}
}

func (s *frameScheduler) RequestFrame(fn func()) {
	s.frames = append(s.frames, fn)
	s.queueTick()
}

func (s *frameScheduler) RequestObservation(fn func()) {
	s.observations = append(s.observations, fn)
	s.queueTick()
}

func (s *frameScheduler) AfterFunc(d time.Duration, fn func()) func() {
	s.nextTimer++
	id := s.nextTimer
	s.timers[id] = fn
	s.pending = append(s.pending, tea.Tick(d, func(time.Time) tea.Msg {
		return timerMsg{id: id}
	}))
	return func() { delete(s.timers, id) }
}

func (s *frameScheduler) queueTick() {
	if s.tickQueued {
		return
	}
	s.tickQueued = true
	s.pending = append(s.pending, tea.Tick(s.interval, func(time.Time) tea.Msg {
		return frameMsg{}
	}))
}

// Frame 执行一帧：动画回调，然后是观察回调（包括动画阶段新登记的）。
func (s *frameScheduler) Frame() {
	s.tickQueued = false
	frames := s.frames
	s.frames = nil
	for _, fn := range frames {
		fn()
	}
	observations := s.observations
	s.observations = nil
	for _, fn := range observations {
		fn()
	}
	if len(s.frames) > 0 || len(s.observations) > 0 {
		s.queueTick()
	}
}

// Fire 触发定时器；已取消或已触发的 id 被忽略。
func (s *frameScheduler) Fire(id uint64) {
	fn, ok := s.timers[id]
	if !ok {
		return
	}
	delete(s.timers, id)
	fn()
}

// Drain 返回并清空待发出的 tick 命令。
func (s *frameScheduler) Drain() []tea.Cmd {
	out := s.pending
	s.pending = nil
	return out
}

// Idle 报告是否没有排队的帧或观察回调。
func (s *frameScheduler) Idle() bool {
	return len(s.frames) == 0 && len(s.observations) == 0
}
