package scroll

import (
	"time"

	"chatscroll/internal/logger"
)

// Options 配置状态机。零值字段使用包内默认值。
//
// Scheduler 为 nil 时不做帧对齐：滚动与加载释放同步完成，可见性监视不再上报。
type Options struct {
	Scheduler      Scheduler
	Logger         *logger.LogEntry
	Threshold      float64
	SmoothDuration time.Duration
	SettleDelay    time.Duration
	Spring         SpringConfig
	// HintTolerance 是偏移推算“已到底部”时允许的行数误差。
	HintTolerance int
}

// Machine 是滚动协调状态机：持有 at-bottom / auto-follow / user-scrolling /
// loading-older 四个标志，并以命名转换的方式修改它们。
//
// 所有方法都应在宿主事件线程上调用。
type Machine struct {
	sched    Scheduler
	log      *logger.LogEntry
	monitor  *Monitor
	actuator *Actuator

	container Container
	anchor    Anchor

	atBottom      bool
	autoFollow    bool
	userScrolling bool
	loadingOlder  bool

	version   any
	streaming bool

	// 同一帧内的多次内容变化合并为一个回调，流式快照以最后一次为准。
	followPending   bool
	followStreaming bool

	prepend       *prependSnapshot
	settleDelay   time.Duration
	hintTolerance int

	subs []func(State)
	last State
}

// NewMachine 创建处于初始状态的状态机：在底部、自动跟随开启。
func NewMachine(opts Options) *Machine {
	log := opts.Logger
	if log == nil {
		log = logger.Named("scroll")
	}
	settle := opts.SettleDelay
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	start := initialState()
	m := &Machine{
		sched:         opts.Scheduler,
		log:           log,
		atBottom:      start.AtBottom,
		autoFollow:    start.AutoFollow,
		settleDelay:   settle,
		hintTolerance: opts.HintTolerance,
		last:          start,
	}
	m.monitor = NewMonitor(opts.Scheduler, opts.Threshold, m.onVisibility)
	m.actuator = NewActuator(opts.Scheduler, opts.SmoothDuration, opts.Spring, m.monitor.Notify)
	return m
}

// Attach 绑定容器与锚点；重复绑定同一对象只会触发一次可见性检查。
func (m *Machine) Attach(c Container, a Anchor) {
	m.container = c
	m.anchor = a
	if c == nil || a == nil {
		m.Detach()
		return
	}
	m.actuator.Attach(c)
	m.monitor.Observe(c, a)
}

// Detach 解除绑定。已排队的帧回调与观察回调不再修改状态。
func (m *Machine) Detach() {
	m.container = nil
	m.anchor = nil
	m.actuator.Attach(nil)
	m.monitor.Disconnect()
	if m.prepend != nil {
		m.settle(m.prepend)
	}
}

// Attached 报告容器与锚点是否都已挂载。
func (m *Machine) Attached() bool {
	return m.container != nil && m.anchor != nil
}

// State 返回当前状态快照。
func (m *Machine) State() State {
	return State{
		AtBottom:           m.atBottom,
		AutoFollow:         m.autoFollow,
		UserScrolling:      m.userScrolling,
		LoadingOlder:       m.loadingOlder,
		ProgrammaticScroll: m.actuator.InFlight(),
	}
}

// AtBottom 返回监视器最近一次上报的底部可见性。
func (m *Machine) AtBottom() bool { return m.atBottom }


// ShowJumpToBottom 报告当前是否应显示“跳到底部”按钮。
func (m *Machine) ShowJumpToBottom() bool { return m.State().ShowJumpToBottom() }

// Streaming 返回最近一次上报的流式状态。
func (m *Machine) Streaming() bool { return m.streaming }

// Actuator 暴露执行器，供宿主查询动画状态。
func (m *Machine) Actuator() *Actuator { return m.actuator }

// Subscribe 注册状态变化回调；仅在快照变化时调用。
func (m *Machine) Subscribe(fn func(State)) {
	if fn != nil {
		m.subs = append(m.subs, fn)
	}
}

// ContentChanged 对应“内容变化”转换：版本变化或流式标志切换时，
// 在下一帧判断 auto-follow && at-bottom 并滚动到底部；流式期间不使用平滑滚动。
func (m *Machine) ContentChanged(version any, streaming bool) {
	changed := version != m.version || streaming != m.streaming
	m.version = version
	m.streaming = streaming
	if !changed {
		return
	}
	m.followStreaming = streaming
	m.monitor.Notify()
	if m.sched == nil {
		m.follow()
		return
	}
	if m.followPending {
		return
	}
	m.followPending = true
	m.sched.RequestFrame(m.follow)
}

// SetStreaming 仅切换流式标志，版本保持不变。
func (m *Machine) SetStreaming(streaming bool) {
	m.ContentChanged(m.version, streaming)
}

func (m *Machine) follow() {
	m.followPending = false
	// 条件在回调内重新计算，不信任调度时的旧值。
	if !m.autoFollow || !m.atBottom {
		return
	}
	smooth := !m.followStreaming
	if m.actuator.ScrollToBottom(smooth) {
		m.logTransition("follow", logger.Fields{"smooth": smooth})
	}
	m.emit()
}

func (m *Machine) onVisibility(visible bool) {
	if !m.Attached() {
		return
	}
	prev := m.atBottom
	m.atBottom = visible
	switch {
	case visible && !prev:
		if m.actuator.InFlight() {
			m.logTransition("arrive.expected", nil)
			break
		}
		m.autoFollow = true
		m.userScrolling = false
		m.logTransition("arrive.user", nil)
	case !visible && prev:
		m.logTransition("leave", nil)
	}
	m.emit()
}

// OnScroll 处理宿主转发的每一个原始滚动事件。
//
// 程序滚动进行中时直接返回。否则用偏移推算作为同帧提示：不在底部且未在流式输出时，
// 视为用户离开底部。at-bottom 标志只由随后的可见性检查确认或纠正。
func (m *Machine) OnScroll() {
	if m.actuator.InFlight() {
		return
	}
	atBottom := m.atBottom
	if hint, ok := m.bottomHint(); ok {
		atBottom = hint
	}
	m.monitor.Notify()
	if atBottom || m.streaming {
		return
	}
	if m.userScrolling && !m.autoFollow {
		return
	}
	m.userScrolling = true
	m.autoFollow = false
	m.logTransition("user.scroll", nil)
	m.emit()
}

func (m *Machine) bottomHint() (bool, bool) {
	if m.container == nil {
		return false, false
	}
	c := m.container
	return c.ScrollOffset()+c.VisibleExtent() >= c.ScrollExtent()-m.hintTolerance, true
}

// Relayout 在容器尺寸或换行变化后调用：贴底跟随时立即对齐底部，再重新检查可见性。
func (m *Machine) Relayout() {
	if !m.Attached() {
		return
	}
	if m.autoFollow && m.atBottom && m.prepend == nil {
		m.actuator.ScrollToBottom(false)
	}
	m.monitor.Notify()
	m.emit()
}

// JumpToBottom 对应点击“跳到底部”：恢复自动跟随并无条件平滑滚动。
func (m *Machine) JumpToBottom() {
	m.autoFollow = true
	m.userScrolling = false
	m.logTransition("jump", nil)
	if !m.actuator.ScrollToBottom(true) {
		m.log.Debug("jump to bottom ignored: container not attached")
	}
	m.emit()
}

// ScrollToBottom 供宿主直接调用（例如发送消息后）；不修改意图标志。
func (m *Machine) ScrollToBottom(smooth bool) bool {
	ok := m.actuator.ScrollToBottom(smooth)
	m.emit()
	return ok
}

func (m *Machine) emit() {
	s := m.State()
	if s == m.last {
		return
	}
	m.last = s
	for _, fn := range m.subs {
		fn(s)
	}
}

func (m *Machine) logTransition(name string, extra logger.Fields) {
	if m.log == nil {
		return
	}
	fields := logger.Fields{
		"transition":     name,
		"at_bottom":      m.atBottom,
		"auto_follow":    m.autoFollow,
		"user_scrolling": m.userScrolling,
		"loading_older":  m.loadingOlder,
		"streaming":      m.streaming,
	}
	for k, v := range extra {
		fields[k] = v
	}
	m.log.WithFields(fields).Debug("scroll transition")
}
