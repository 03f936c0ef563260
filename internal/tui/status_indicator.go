package tui

import (
	"fmt"
	"time"

	"chatscroll/internal/tui/render"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// StatusIndicatorState 枚举了状态行可显示的状态。
type StatusIndicatorState int

const (
	// StatusIdle 表示空闲，只显示提示。
	StatusIdle StatusIndicatorState = iota
	// StatusStreaming 表示助手回复正在流式输出，计时器持续累加。
	StatusStreaming
	// StatusLoading 表示正在向上加载更早的消息。
	StatusLoading
	// StatusError 表示最近一次操作失败。
	StatusError
)

func (s StatusIndicatorState) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStreaming:
		return "streaming"
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

func (s StatusIndicatorState) defaultHeader() string {
	switch s {
	case StatusStreaming:
		return "Replying"
	case StatusLoading:
		return "Loading older messages"
	case StatusError:
		return "Error"
	default:
		return ""
	}
}

func (s StatusIndicatorState) tracksElapsed() bool {
	return s == StatusStreaming
}

func (s StatusIndicatorState) interruptible() bool {
	return s == StatusStreaming
}

// StatusIndicator 管理状态行：spinner + 标题 + 计时/中断提示。
type StatusIndicator struct {
	state  StatusIndicatorState
	header string

	elapsedRunning time.Duration
	lastResumeAt   time.Time
	paused         bool

	clock func() time.Time
}

// NewStatusIndicator 构造空闲状态的指示器；clock 为 nil 时使用 time.Now。
func NewStatusIndicator(clock func() time.Time) *StatusIndicator {
	if clock == nil {
		clock = time.Now
	}
	return &StatusIndicator{clock: clock, paused: true, lastResumeAt: clock()}
}

func (w *StatusIndicator) State() StatusIndicatorState { return w.state }

// SetState 更新状态；进入计时状态时从零开始计时。
func (w *StatusIndicator) SetState(state StatusIndicatorState) {
	if w == nil {
		return
	}
	now := w.clock()
	if state.tracksElapsed() && !w.state.tracksElapsed() {
		w.elapsedRunning = 0
		w.lastResumeAt = now
		w.paused = false
	}
	if !state.tracksElapsed() && !w.paused {
		w.elapsedRunning += now.Sub(w.lastResumeAt)
		w.paused = true
	}
	w.state = state
	w.header = state.defaultHeader()
}

// SetError 切换到错误态并显示错误文本。
func (w *StatusIndicator) SetError(err error) {
	if w == nil || err == nil {
		return
	}
	w.SetState(StatusError)
	w.header = err.Error()
}

// ElapsedSeconds 返回累计秒数。
func (w *StatusIndicator) ElapsedSeconds() uint64 {
	if w == nil {
		return 0
	}
	return uint64(w.elapsedAt(w.clock()).Seconds())
}

func (w *StatusIndicator) elapsedAt(now time.Time) time.Duration {
	if w.paused {
		return w.elapsedRunning
	}
	return w.elapsedRunning + now.Sub(w.lastResumeAt)
}

// Line 绘制状态行；空闲时返回 hint。
func (w *StatusIndicator) Line(spin string, hint string, width int) render.Line {
	faint := lipgloss.NewStyle().Faint(true)
	if w == nil || w.state == StatusIdle {
		return render.Line{Spans: clampSpans([]render.Span{{Text: hint, Style: faint}}, width)}
	}
	spans := []render.Span{}
	switch w.state {
	case StatusError:
		spans = append(spans, render.Span{Text: "!", Style: lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))})
	default:
		spans = append(spans, render.Span{Text: spin})
	}
	if w.header != "" {
		spans = append(spans, render.Span{Text: " "}, render.Span{Text: w.header})
	}
	if w.state.tracksElapsed() {
		spans = append(spans, render.Span{Text: " "}, render.Span{
			Text:  formatHint(fmtElapsedCompact(w.ElapsedSeconds()), w.state.interruptible()),
			Style: faint,
		})
	}
	return render.Line{Spans: clampSpans(spans, width)}
}

func formatHint(elapsed string, interruptible bool) string {
	if interruptible {
		return fmt.Sprintf("(%s • esc to stop)", elapsed)
	}
	return fmt.Sprintf("(%s)", elapsed)
}

// fmtElapsedCompact 将秒数格式化为友好字符串。
func fmtElapsedCompact(elapsedSecs uint64) string {
	switch {
	case elapsedSecs < 60:
		return fmt.Sprintf("%ds", elapsedSecs)
	case elapsedSecs < 3600:
		return fmt.Sprintf("%dm %02ds", elapsedSecs/60, elapsedSecs%60)
	default:
		return fmt.Sprintf("%dh %02dm %02ds", elapsedSecs/3600, (elapsedSecs%3600)/60, elapsedSecs%60)
	}
}

func clampSpans(spans []render.Span, width int) []render.Span {
	if width <= 0 {
		return nil
	}
	remaining := width
	out := make([]render.Span, 0, len(spans))
	for _, sp := range spans {
		if remaining <= 0 {
			break
		}
		tw := runewidth.StringWidth(sp.Text)
		if tw <= remaining {
			out = append(out, sp)
			remaining -= tw
			continue
		}
		if text := runewidth.Truncate(sp.Text, remaining, ""); text != "" {
			sp.Text = text
			out = append(out, sp)
		}
		remaining = 0
	}
	return out
}
