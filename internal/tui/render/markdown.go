package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
)

// Markdown 缓存按宽度构造的 glamour 渲染器。
type Markdown struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdown 使用标准样式名（dark/light/notty 等）创建渲染器。
func NewMarkdown(style string) *Markdown {
	if strings.TrimSpace(style) == "" {
		style = "dark"
	}
	return &Markdown{style: style}
}

// Render 返回去掉首尾空行的渲染结果。
func (md *Markdown) Render(content string, width int) ([]string, error) {
	if md.renderer == nil || md.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(md.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return nil, err
		}
		md.renderer = r
		md.width = width
	}
	out, err := md.renderer.Render(content)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(out, "\n")
	for len(lines) > 0 && strings.TrimSpace(ansi.Strip(lines[0])) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(ansi.Strip(lines[len(lines)-1])) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
