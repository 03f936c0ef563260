package scroll

import (
	"errors"
	"time"
)

// Container 是可滚动容器的最小视图，单位由宿主决定（终端中为行）。
// 核心只持有非拥有引用。
type Container interface {
	ScrollOffset() int
	ScrollExtent() int
	VisibleExtent() int
	SetScrollOffset(offset int)
}

// Anchor 是位于最后一条内容之后的底部标记；ok=false 表示已卸载。
type Anchor interface {
	AnchorBounds() (top, height int, ok bool)
}

// Scheduler 抽象宿主事件循环。所有回调都在同一事件线程上触发，核心无需加锁。
//
// 每一帧分两个阶段：先执行动画回调，再投递观察回调。动画阶段内登记的观察回调
// 在同一帧投递，与浏览器中 IntersectionObserver 晚于 rAF 的顺序一致。
type Scheduler interface {
	// RequestFrame 在下一帧的动画阶段调用 fn，按注册顺序执行。
	RequestFrame(fn func())
	// RequestObservation 在观察阶段调用 fn，按注册顺序执行。
	RequestObservation(fn func())
	// AfterFunc 在 d 之后调用 fn；返回的 cancel 可重复调用。
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

var (
	// ErrNotAttached 表示容器或锚点尚未挂载。
	ErrNotAttached = errors.New("scroll: container not attached")
	// ErrLoadInProgress 表示已有一次向上加载在进行中。
	ErrLoadInProgress = errors.New("scroll: older content load already in progress")
)

const (
	DefaultThreshold      = 0.1
	DefaultSmoothDuration = 500 * time.Millisecond
	DefaultSettleDelay    = 500 * time.Millisecond
)

// State 是状态机的只读快照。
type State struct {
	AtBottom           bool
	AutoFollow         bool
	UserScrolling      bool
	LoadingOlder       bool
	ProgrammaticScroll bool
}

// ShowJumpToBottom 仅在不在底部、用户主动离开且没有向上加载时为 true。
func (s State) ShowJumpToBottom() bool {
	return !s.AtBottom && !s.LoadingOlder && s.UserScrolling
}

func initialState() State {
	return State{AtBottom: true, AutoFollow: true}
}

func maxOffset(c Container) int {
	n := c.ScrollExtent() - c.VisibleExtent()
	if n < 0 {
		return 0
	}
	return n
}

func clampOffset(c Container, offset int) int {
	if offset < 0 {
		return 0
	}
	if m := maxOffset(c); offset > m {
		return m
	}
	return offset
}
