// Package scrolltest 提供手动驱动的调度器与内存容器，用于在没有 UI 工具包的情况下
// 测试滚动状态机。
package scrolltest

import (
	"sort"
	"time"
)

// Scheduler 是手动推进的帧/定时器调度器，时间为虚拟时间。
type Scheduler struct {
	now      time.Duration
	frames   []func()
	observes []func()
	timers   []*timer
	seq      int
	// FrameInterval 是 Advance 推进时的帧间隔，默认 16ms。
	FrameInterval time.Duration
}

type timer struct {
	at       time.Duration
	seq      int
	fn       func()
	canceled bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{FrameInterval: 16 * time.Millisecond}
}

func (s *Scheduler) RequestFrame(fn func()) {
	s.frames = append(s.frames, fn)
}

func (s *Scheduler) RequestObservation(fn func()) {
	s.observes = append(s.observes, fn)
}

func (s *Scheduler) AfterFunc(d time.Duration, fn func()) func() {
	s.seq++
	t := &timer{at: s.now + d, seq: s.seq, fn: fn}
	s.timers = append(s.timers, t)
	return func() { t.canceled = true }
}

// Now 返回当前虚拟时间。
func (s *Scheduler) Now() time.Duration { return s.now }

// Pending 报告是否还有排队的帧回调、观察回调或未取消的定时器。
func (s *Scheduler) Pending() bool {
	if len(s.frames) > 0 || len(s.observes) > 0 {
		return true
	}
	for _, t := range s.timers {
		if !t.canceled {
			return true
		}
	}
	return false
}

// Frame 执行一帧：先动画阶段，再观察阶段。
func (s *Scheduler) Frame() {
	frames := s.frames
	s.frames = nil
	for _, fn := range frames {
		fn()
	}
	observes := s.observes
	s.observes = nil
	for _, fn := range observes {
		fn()
	}
}

// Flush 执行帧直到没有排队的帧与观察回调，最多 limit 帧；不推进时间。
func (s *Scheduler) Flush(limit int) int {
	n := 0
	for n < limit && (len(s.frames) > 0 || len(s.observes) > 0) {
		s.Frame()
		n++
	}
	return n
}

// Advance 按帧间隔推进虚拟时间 d，期间每帧执行排队回调并触发到期定时器。
func (s *Scheduler) Advance(d time.Duration) {
	step := s.FrameInterval
	if step <= 0 {
		step = 16 * time.Millisecond
	}
	end := s.now + d
	for s.now < end {
		next := s.now + step
		if next > end {
			next = end
		}
		s.now = next
		s.fireTimers()
		s.Frame()
	}
}

func (s *Scheduler) fireTimers() {
	for {
		due := s.dueTimers()
		if len(due) == 0 {
			return
		}
		for _, t := range due {
			if t.canceled {
				continue
			}
			t.canceled = true
			t.fn()
		}
	}
}

func (s *Scheduler) dueTimers() []*timer {
	var due, rest []*timer
	for _, t := range s.timers {
		switch {
		case t.canceled:
		case t.at <= s.now:
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	s.timers = rest
	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].seq < due[j].seq
		}
		return due[i].at < due[j].at
	})
	return due
}

// Container 是以行为单位的内存容器，同时充当零高度底部锚点。
type Container struct {
	Offset   int
	Extent   int
	Visible  int
	Detached bool
	// OnSet 在每次 SetScrollOffset 后调用，可用于模拟同步滚动事件。
	OnSet  func(offset int)
	Writes int
}

func NewContainer(extent, visible int) *Container {
	c := &Container{Extent: extent, Visible: visible}
	c.Offset = c.Max()
	return c
}

func (c *Container) ScrollOffset() int  { return c.Offset }
func (c *Container) ScrollExtent() int  { return c.Extent }
func (c *Container) VisibleExtent() int { return c.Visible }

func (c *Container) SetScrollOffset(offset int) {
	if offset < 0 {
		offset = 0
	}
	if m := c.Max(); offset > m {
		offset = m
	}
	c.Offset = offset
	c.Writes++
	if c.OnSet != nil {
		c.OnSet(offset)
	}
}

// Max 返回最大可滚动偏移。
func (c *Container) Max() int {
	if c.Extent <= c.Visible {
		return 0
	}
	return c.Extent - c.Visible
}

// AnchorBounds 实现 scroll.Anchor：锚点位于全部内容之后。
func (c *Container) AnchorBounds() (int, int, bool) {
	if c.Detached {
		return 0, 0, false
	}
	return c.Extent, 0, true
}

// Grow 在底部追加 n 行，偏移不变。
func (c *Container) Grow(n int) { c.Extent += n }

// Prepend 在顶部插入 n 行，偏移不变（与浏览器未做补偿时一致）。
func (c *Container) Prepend(n int) { c.Extent += n }
