package scroll

// Monitor 观察底部锚点与容器可视区的交叠，是“是否在底部”的唯一权威来源。
//
// 检查总是延迟到帧的观察阶段执行，与滚动事件的时序解耦；多次 Notify 合并为一次。
type Monitor struct {
	sched     Scheduler
	threshold float64
	report    func(bool)

	container Container
	anchor    Anchor
	// gen 在每次重新绑定/断开时递增，旧的排队检查据此作废。
	gen     uint64
	queued  bool
	last    bool
	hasLast bool
}

// NewMonitor 创建监视器；threshold 不在 (0,1] 内时使用 DefaultThreshold。
func NewMonitor(sched Scheduler, threshold float64, report func(bool)) *Monitor {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Monitor{sched: sched, threshold: threshold, report: report}
}

// Observe 绑定容器与锚点。身份变化时先解除旧的观察；任一参数为 nil 等同于 Disconnect。
func (m *Monitor) Observe(c Container, a Anchor) {
	if m == nil {
		return
	}
	if c == nil || a == nil {
		m.Disconnect()
		return
	}
	if m.container == c && m.anchor == a {
		m.Notify()
		return
	}
	m.Disconnect()
	m.container = c
	m.anchor = a
	m.Notify()
}

// Disconnect 解除观察，已排队的检查不再产生回调。
func (m *Monitor) Disconnect() {
	if m == nil {
		return
	}
	m.gen++
	m.container = nil
	m.anchor = nil
	m.queued = false
	m.hasLast = false
}

// Observing 报告当前是否绑定了容器与锚点。
func (m *Monitor) Observing() bool {
	return m != nil && m.container != nil && m.anchor != nil
}

// Notify 通知布局可能已变化，在观察阶段安排一次检查。
func (m *Monitor) Notify() {
	if m == nil || m.sched == nil || m.queued || !m.Observing() {
		return
	}
	m.queued = true
	gen := m.gen
	m.sched.RequestObservation(func() {
		if gen != m.gen {
			return
		}
		m.queued = false
		m.check()
	})
}

func (m *Monitor) check() {
	visible, ok := m.Visible()
	if !ok {
		return
	}
	if m.hasLast && visible == m.last {
		return
	}
	m.last = visible
	m.hasLast = true
	if m.report != nil {
		m.report(visible)
	}
}

// Visible 立即计算锚点是否满足可见阈值；锚点卸载或未绑定时 ok=false。
func (m *Monitor) Visible() (visible bool, ok bool) {
	if !m.Observing() {
		return false, false
	}
	ratio, ok := IntersectionRatio(m.container, m.anchor)
	if !ok {
		return false, false
	}
	return ratio > 0 && ratio >= m.threshold, true
}

// IntersectionRatio 计算锚点在容器可视区内的可见比例，零边距。
// 零高度锚点落在可视区边界之内（含两端）时比例为 1。
func IntersectionRatio(c Container, a Anchor) (float64, bool) {
	if c == nil || a == nil {
		return 0, false
	}
	top, height, ok := a.AnchorBounds()
	if !ok {
		return 0, false
	}
	viewTop := c.ScrollOffset()
	viewBottom := viewTop + c.VisibleExtent()
	if height <= 0 {
		if top >= viewTop && top <= viewBottom {
			return 1, true
		}
		return 0, true
	}
	lo := max(top, viewTop)
	hi := min(top+height, viewBottom)
	if hi <= lo {
		return 0, true
	}
	return float64(hi-lo) / float64(height), true
}
