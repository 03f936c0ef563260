package slash

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	nameStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C4A1FF"))
	descStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	highlightStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EBCB8B"))
	selectedStyle  = lipgloss.NewStyle().Background(lipgloss.Color("#2F2A3D"))
)

const nameWidth = 10

// View 渲染弹窗内容（不含外围边框）。
func (s *State) View(width int) string {
	if !s.Open() {
		return ""
	}
	if width <= 20 {
		width = 20
	}
	if len(s.matches) == 0 {
		return lipgloss.NewStyle().Width(width).Render("no matches")
	}
	descWidth := width - nameWidth - 2
	lines := make([]string, 0, len(s.matches))
	for idx, m := range s.matches {
		name := applyHighlights(m.item.DisplayName(), m.highlights)
		cell := lipgloss.NewStyle().Width(nameWidth).Render(nameStyle.Render(name))
		line := cell + "  " + descStyle.Render(runewidth.Truncate(m.item.Description, descWidth, "…"))
		if idx == s.selected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

// applyHighlights 高亮匹配字符；下标基于不含斜杠的命令名。
func applyHighlights(name string, highlights []int) string {
	if len(highlights) == 0 {
		return name
	}
	marked := make(map[int]bool, len(highlights))
	for _, h := range highlights {
		marked[h+1] = true
	}
	var b strings.Builder
	for i, r := range []rune(name) {
		if marked[i] {
			b.WriteString(highlightStyle.Render(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
