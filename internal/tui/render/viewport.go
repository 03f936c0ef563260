package render

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Viewport 包装 bubbles viewport，作为滚动状态机的容器与底部锚点。
// 偏移与范围均以行为单位；锚点是最后一行之后的零高度标记。
// 自身不做贴底处理，跟随由状态机决定。
type Viewport struct {
	viewport.Model
	lastLines []string
}

// NewViewport 创建视口；按键交给外层模型处理，这里只保留鼠标滚轮。
func NewViewport(width, height int) *Viewport {
	vp := viewport.New(width, height)
	vp.KeyMap = viewport.KeyMap{}
	vp.MouseWheelDelta = 3
	return &Viewport{Model: vp}
}

func (v *Viewport) ScrollOffset() int  { return v.YOffset }
func (v *Viewport) ScrollExtent() int  { return v.TotalLineCount() }
func (v *Viewport) VisibleExtent() int { return v.Height }

func (v *Viewport) SetScrollOffset(offset int) {
	v.SetYOffset(offset)
}

// AnchorBounds 返回底部标记的位置；视口高度为 0 时视为未挂载。
func (v *Viewport) AnchorBounds() (top, height int, ok bool) {
	if v == nil || v.Height <= 0 {
		return 0, 0, false
	}
	return v.TotalLineCount(), 0, true
}

// Resize 更新宽高，返回宽度是否变化（需要重新换行）。
func (v *Viewport) Resize(width, height int) bool {
	if v == nil {
		return false
	}
	widthChanged := v.Width != width
	v.Width = width
	v.Height = height
	if widthChanged {
		v.lastLines = nil
	}
	// 高度变化后重新夹取偏移。
	v.SetYOffset(v.YOffset)
	return widthChanged
}

// SetLines 更新内容，返回内容是否变化。偏移保持不变（超出时由 bubbles 夹取）。
func (v *Viewport) SetLines(lines []string) bool {
	if v == nil || slices.Equal(lines, v.lastLines) {
		return false
	}
	v.lastLines = append([]string(nil), lines...)
	v.SetContent(strings.Join(lines, "\n"))
	return true
}

// HandleUpdate 代理 bubbles 的 Update（鼠标滚轮），并报告偏移是否改变。
func (v *Viewport) HandleUpdate(msg tea.Msg) (tea.Cmd, bool) {
	if v == nil {
		return nil, false
	}
	before := v.YOffset
	var cmd tea.Cmd
	v.Model, cmd = v.Model.Update(msg)
	return cmd, v.YOffset != before
}

// ScrollBy 按行滚动，负数向上；返回偏移是否改变。
func (v *Viewport) ScrollBy(n int) bool {
	if v == nil || n == 0 {
		return false
	}
	before := v.YOffset
	v.SetYOffset(v.YOffset + n)
	return v.YOffset != before
}

// Page 返回一页的行数。
func (v *Viewport) Page() int {
	if v == nil || v.Height < 1 {
		return 1
	}
	return v.Height
}

// Invalidate 清空已缓存的行，强制下次 SetLines 重新设置内容。
func (v *Viewport) Invalidate() {
	if v == nil {
		return
	}
	v.lastLines = nil
}
