package render

import (
	"strings"

	"chatscroll/internal/transcript"

	"github.com/charmbracelet/lipgloss"
)

var (
	userPrefixStyle      = lipgloss.NewStyle().Faint(true).Bold(true)
	userIndentStyle      = lipgloss.NewStyle().Faint(true)
	assistantPrefixStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	systemStyle          = lipgloss.NewStyle().Faint(true).Italic(true)
	highlightStyle       = lipgloss.NewStyle().Background(lipgloss.Color("#3B3552"))
)

// Options 控制消息渲染。
type Options struct {
	// Markdown 非空时用于渲染助手消息。
	Markdown *Markdown
	// Highlight 为需要高亮的消息 ID。
	Highlight string
}

// Rendered 是渲染后的转录：所有行以及每条消息的起始行号。
type Rendered struct {
	Lines  []Line
	Starts []int
}

// LineOf 返回消息 idx 的起始行，越界时返回 -1。
func (r Rendered) LineOf(idx int) int {
	if idx < 0 || idx >= len(r.Starts) {
		return -1
	}
	return r.Starts[idx]
}

// RenderMessages 将消息逐条渲染并拼接，记录每条消息的起始行。
func RenderMessages(msgs []transcript.Message, width int, opts Options) Rendered {
	var out Rendered
	out.Starts = make([]int, 0, len(msgs))
	for _, msg := range msgs {
		out.Starts = append(out.Starts, len(out.Lines))
		out.Lines = append(out.Lines, messageLines(msg, width, opts)...)
	}
	return out
}

func messageLines(msg transcript.Message, width int, opts Options) []Line {
	content := strings.TrimRight(msg.Content, "\n")
	var lines []Line
	switch msg.Role {
	case transcript.RoleUser:
		lines = renderUserLines(content, width)
	case transcript.RoleAssistant:
		lines = renderAssistantLines(content, width, opts.Markdown)
	default:
		lines = wrapLines(content, width, systemStyle)
	}
	if opts.Highlight != "" && msg.ID == opts.Highlight {
		for i := range lines {
			lines[i].Style = highlightStyle
		}
	}
	return lines
}

func renderUserLines(content string, width int) []Line {
	body := wrapLines(content, bodyWidth(width), lipgloss.Style{})
	prefixed := PrefixLines(body, Span{Text: "› ", Style: userPrefixStyle}, Span{Text: "  ", Style: userIndentStyle})
	lines := make([]Line, 0, len(prefixed)+2)
	lines = append(lines, Line{})
	lines = append(lines, prefixed...)
	lines = append(lines, Line{})
	return lines
}

func renderAssistantLines(content string, width int, md *Markdown) []Line {
	var body []Line
	if md != nil && strings.TrimSpace(content) != "" {
		if rendered, err := md.Render(content, bodyWidth(width)); err == nil {
			body = make([]Line, 0, len(rendered))
			for _, l := range rendered {
				body = append(body, Line{Spans: []Span{{Text: l}}})
			}
		}
	}
	if body == nil {
		body = wrapLines(content, bodyWidth(width), lipgloss.Style{})
	}
	prefixed := PrefixLines(body, Span{Text: "• ", Style: assistantPrefixStyle}, Span{Text: "  "})
	if len(prefixed) == 0 {
		prefixed = []Line{{Spans: []Span{{Text: "• ", Style: assistantPrefixStyle}}}}
	}
	return prefixed
}

func bodyWidth(width int) int {
	if width-2 < 1 {
		return width
	}
	return width - 2
}

func wrapLines(content string, width int, style lipgloss.Style) []Line {
	lines := wrapText(content, width)
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, Line{Spans: []Span{{Text: l, Style: style}}})
	}
	return out
}
