package scroll

import (
	"fmt"

	"chatscroll/internal/logger"
)

type prependSnapshot struct {
	offset int
	extent int
	cancel func()
}

// LoadingOlder 报告向上加载是否在进行中。
func (m *Machine) LoadingOlder() bool { return m.loadingOlder }

// BeginLoadingOlder 标记向上加载开始，并记录当前偏移与总高度。
// 加载期间“跳到底部”按钮被强制隐藏，其余标志不变。
func (m *Machine) BeginLoadingOlder() error {
	if m.container == nil {
		return ErrNotAttached
	}
	if m.loadingOlder {
		return ErrLoadInProgress
	}
	m.loadingOlder = true
	m.prepend = &prependSnapshot{
		offset: m.container.ScrollOffset(),
		extent: m.container.ScrollExtent(),
	}
	m.logTransition("prepend.begin", logger.Fields{
		"offset": m.prepend.offset,
		"extent": m.prepend.extent,
	})
	m.emit()
	return nil
}

// CompleteLoadingOlder 在插入生效后（下一帧）按总高度增量补偿偏移，
// 再经过 settle 延迟清除加载标志。没有调度器时补偿与释放都立即完成。
func (m *Machine) CompleteLoadingOlder() {
	snap := m.prepend
	if !m.loadingOlder || snap == nil {
		return
	}
	compensate := func() {
		if m.prepend != snap {
			return
		}
		if m.container != nil {
			delta := m.container.ScrollExtent() - snap.extent
			target := snap.offset + delta
			m.actuator.SetOffset(target)
			m.logTransition("prepend.compensate", logger.Fields{"delta": delta, "offset": target})
		}
		m.settle(snap)
	}
	if m.sched == nil {
		compensate()
		return
	}
	m.sched.RequestFrame(compensate)
}

// LoadOlder 执行完整的保位插入流程：开始、调用 fetch、补偿偏移、延迟释放。
// fetch 返回前宿主需保证新内容已提交，使下一帧的布局反映插入结果。
func (m *Machine) LoadOlder(fetch func() error) error {
	if err := m.BeginLoadingOlder(); err != nil {
		return err
	}
	if fetch != nil {
		if err := fetch(); err != nil {
			m.settle(m.prepend)
			return fmt.Errorf("load older content: %w", err)
		}
	}
	m.CompleteLoadingOlder()
	return nil
}

// settle 在固定延迟后释放加载标志；无论布局何时稳定都会触发。
func (m *Machine) settle(snap *prependSnapshot) {
	if snap == nil || snap.cancel != nil {
		return
	}
	release := func() {
		if m.prepend != snap {
			return
		}
		m.prepend = nil
		m.loadingOlder = false
		m.logTransition("prepend.settled", nil)
		m.emit()
	}
	if m.sched == nil {
		snap.cancel = func() {}
		release()
		return
	}
	snap.cancel = m.sched.AfterFunc(m.settleDelay, release)
}
