package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
)

type streamChunkMsg struct {
	id uint64
}

// responder 模拟助手：为每次输入生成一段回复，并按固定间隔逐词流出。
type responder struct {
	delay  time.Duration
	nextID uint64

	active uint64
	chunks []string
	pos    int
}

func newResponder(delay time.Duration) *responder {
	return &responder{delay: delay}
}

// Start 开始新的回复；旧流的剩余片段被丢弃。
func (r *responder) Start(prompt string, turn int) tea.Cmd {
	r.nextID++
	r.active = r.nextID
	r.chunks = splitChunks(composeReply(prompt, turn))
	r.pos = 0
	return r.tick()
}

// Active 报告是否有未结束的流。
func (r *responder) Active() bool {
	return r.active != 0
}

// Next 返回属于当前流的下一个片段；done 为 true 表示流已结束。
// 过期 id 返回 ok=false。
func (r *responder) Next(id uint64) (chunk string, done bool, ok bool) {
	if id == 0 || id != r.active {
		return "", false, false
	}
	if r.pos >= len(r.chunks) {
		r.Stop()
		return "", true, true
	}
	chunk = r.chunks[r.pos]
	r.pos++
	return chunk, false, true
}

// Stop 结束当前流。
func (r *responder) Stop() {
	r.active = 0
	r.chunks = nil
	r.pos = 0
}

func (r *responder) tick() tea.Cmd {
	id := r.active
	return tea.Tick(r.delay, func(time.Time) tea.Msg {
		return streamChunkMsg{id: id}
	})
}

func composeReply(prompt string, turn int) string {
	prompt = strings.TrimSpace(prompt)
	words := len(strings.Fields(prompt))
	var b strings.Builder
	fmt.Fprintf(&b, "You said: **%s**\n\n", prompt)
	b.WriteString("This reply streams in one word at a time. While you stay at the bottom the view keeps up with it; ")
	b.WriteString("scroll up and it stays put until you come back down or press `End`.\n\n")
	fmt.Fprintf(&b, "- turn: %d\n", turn)
	fmt.Fprintf(&b, "- words received: %d\n", words)
	fmt.Fprintf(&b, "- characters received: %d", len([]rune(prompt)))
	return b.String()
}

// splitChunks 按单词切分并保留其后的空白，拼接结果与原文一致。
func splitChunks(text string) []string {
	var out []string
	var cur strings.Builder
	prevSpace := false
	for _, r := range text {
		space := unicode.IsSpace(r)
		if !space && prevSpace && cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
		cur.WriteRune(r)
		prevSpace = space
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
