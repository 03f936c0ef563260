package tui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"chatscroll/internal/config"
	"chatscroll/internal/history"
	"chatscroll/internal/logger"
	"chatscroll/internal/transcript"
	"chatscroll/internal/tui/render"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func archiveOf(n int) *transcript.Archive {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	msgs := make([]transcript.Message, n)
	for i := range msgs {
		msgs[i] = transcript.Message{
			ID:      fmt.Sprintf("m%03d", i),
			Role:    transcript.RoleUser,
			Content: fmt.Sprintf("archived message %02d", i),
			Time:    base.Add(time.Duration(i) * time.Minute),
		}
	}
	return transcript.NewArchive(msgs)
}

type testClipboard struct {
	text string
}

func (c *testClipboard) write(s string) error {
	c.text = s
	return nil
}

func newTestModel(t *testing.T, archive *transcript.Archive, clip *testClipboard) *Model {
	t.Helper()
	cfg := config.Default()
	cfg.PageSize = 10
	cfg.StreamDelayMS = 1
	opts := Options{Config: cfg, Archive: archive, Logger: logger.Named("tui-test")}
	if archive != nil {
		opts.Initial = archive.Tail(cfg.PageSize)
	}
	if clip != nil {
		opts.Clipboard = clip.write
	}
	m := New(opts)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	settle(m)
	return m
}

// pump 执行 n 帧（与真实 tick 的结果相同，只是不等待时间）。
func pump(m *Model, n int) {
	for i := 0; i < n; i++ {
		m.Update(frameMsg{})
	}
}

// fireTimers 立即触发所有未取消的定时器，并推进随后的帧。
func fireTimers(m *Model) {
	for round := 0; round < 10 && len(m.sched.timers) > 0; round++ {
		ids := make([]uint64, 0, len(m.sched.timers))
		for id := range m.sched.timers {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			m.Update(timerMsg{id: id})
		}
		pump(m, 5)
	}
}

func settle(m *Model) {
	pump(m, 120)
	fireTimers(m)
}

func press(m *Model, k tea.KeyType) {
	m.Update(tea.KeyMsg{Type: k})
}

func plainLines(m *Model) []string {
	return render.LinesToPlainStrings(m.rendered.Lines)
}

func TestNewModelStartsAtBottom(t *testing.T) {
	m := newTestModel(t, archiveOf(30), nil)
	if !m.viewport.AtBottom() {
		t.Fatalf("initial view should sit at the newest message")
	}
	if !m.state.AtBottom || !m.state.AutoFollow || m.state.ShowJumpToBottom() {
		t.Fatalf("unexpected initial scroll state: %+v", m.state)
	}
	if m.viewport.Height < 1 || m.viewport.Width != 76 {
		t.Fatalf("viewport = %dx%d", m.viewport.Width, m.viewport.Height)
	}
}

func TestSendFollowsStreamingReply(t *testing.T) {
	m := newTestModel(t, archiveOf(30), nil)
	m.setComposer("hello there")
	press(m, tea.KeyEnter)

	if !m.transcript.Streaming() || m.status.State() != StatusStreaming {
		t.Fatalf("reply should be streaming")
	}
	for i := 0; m.responder.Active() && i < 500; i++ {
		m.Update(streamChunkMsg{id: m.responder.active})
		pump(m, 1)
		if !m.state.AutoFollow {
			t.Fatalf("follow dropped at chunk %d: %+v", i, m.state)
		}
	}
	settle(m)

	last, _ := m.transcript.LastOf(transcript.RoleAssistant)
	if last.Content != composeReply("hello there", 1) {
		t.Fatalf("assistant reply = %q", last.Content)
	}
	if m.transcript.Streaming() || m.status.State() != StatusIdle {
		t.Fatalf("stream should be finished")
	}
	if !m.viewport.AtBottom() || m.state.ShowJumpToBottom() {
		t.Fatalf("view should end at the bottom without the badge: %+v", m.state)
	}
}

func TestUserScrollShowsBadgeAndJumpReturns(t *testing.T) {
	m := newTestModel(t, archiveOf(30), nil)
	press(m, tea.KeyPgUp)
	pump(m, 3)

	if !m.state.ShowJumpToBottom() || m.state.AutoFollow {
		t.Fatalf("page up should leave the bottom: %+v", m.state)
	}
	if !strings.Contains(m.View(), badgeText) {
		t.Fatalf("badge should be rendered")
	}

	row := lipgloss.Height(m.renderHeader()) + 1 + m.viewport.Height
	m.Update(tea.MouseMsg{X: 3, Y: row, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	settle(m)

	if !m.viewport.AtBottom() {
		t.Fatalf("clicking the badge should return to the bottom")
	}
	if m.state.ShowJumpToBottom() || !m.state.AutoFollow {
		t.Fatalf("unexpected state after jump: %+v", m.state)
	}
	if strings.Contains(m.View(), badgeText) {
		t.Fatalf("badge should be hidden at the bottom")
	}
}

func TestNoFollowWhileScrolledAway(t *testing.T) {
	m := newTestModel(t, archiveOf(30), nil)
	press(m, tea.KeyPgUp)
	pump(m, 3)
	offset := m.viewport.YOffset

	m.Update(systemMsg{Text: "new content"})
	settle(m)
	if m.viewport.YOffset != offset {
		t.Fatalf("view moved from %d to %d while scrolled away", offset, m.viewport.YOffset)
	}
	if !m.state.ShowJumpToBottom() {
		t.Fatalf("badge should stay visible")
	}

	press(m, tea.KeyCtrlJ)
	settle(m)
	if !m.viewport.AtBottom() {
		t.Fatalf("ctrl+j should jump to the bottom")
	}
}

func TestLoadOlderKeepsVisibleContent(t *testing.T) {
	m := newTestModel(t, archiveOf(60), nil)
	for i := 0; i < 10; i++ {
		press(m, tea.KeyUp)
	}
	pump(m, 3)
	before := m.viewport.YOffset
	beforeLine := plainLines(m)[before]
	if !strings.Contains(beforeLine, "archived message") {
		t.Fatalf("test setup: top line %q should be a message", beforeLine)
	}

	press(m, tea.KeyCtrlO)
	if !m.state.LoadingOlder || m.state.ShowJumpToBottom() {
		t.Fatalf("badge must be hidden while loading: %+v", m.state)
	}
	if m.status.State() != StatusLoading {
		t.Fatalf("status = %v, want loading", m.status.State())
	}
	pump(m, 3)

	if m.transcript.Len() != 20 {
		t.Fatalf("transcript len = %d, want 20", m.transcript.Len())
	}
	if got := plainLines(m)[m.viewport.YOffset]; got != beforeLine {
		t.Fatalf("top line changed from %q to %q", beforeLine, got)
	}
	if m.viewport.YOffset != before+30 {
		t.Fatalf("offset = %d, want %d", m.viewport.YOffset, before+30)
	}

	fireTimers(m)
	if m.state.LoadingOlder || !m.state.ShowJumpToBottom() {
		t.Fatalf("badge should return after the load settles: %+v", m.state)
	}
	if m.status.State() != StatusIdle {
		t.Fatalf("status = %v, want idle", m.status.State())
	}
}

func TestScrollUpAtTopLoadsOlder(t *testing.T) {
	m := newTestModel(t, archiveOf(60), nil)
	press(m, tea.KeyHome)
	pump(m, 3)
	if !m.viewport.AtTop() {
		t.Fatalf("home should reach the top")
	}
	press(m, tea.KeyUp)
	pump(m, 3)
	if m.transcript.Len() != 20 {
		t.Fatalf("scrolling up at the top should load a page, len=%d", m.transcript.Len())
	}
}

func TestLoadOlderAtArchiveStart(t *testing.T) {
	m := newTestModel(t, archiveOf(5), nil)
	press(m, tea.KeyCtrlO)
	settle(m)
	if m.notice != "beginning of archive" || !m.olderExhausted {
		t.Fatalf("notice = %q exhausted=%v", m.notice, m.olderExhausted)
	}
	if m.state.LoadingOlder {
		t.Fatalf("loading flag should be released")
	}

	m = newTestModel(t, nil, nil)
	press(m, tea.KeyCtrlO)
	if m.notice != "no archive configured" {
		t.Fatalf("notice = %q", m.notice)
	}
}

func TestSlashCommands(t *testing.T) {
	clip := &testClipboard{}
	m := newTestModel(t, archiveOf(30), clip)

	m.setComposer("hi")
	press(m, tea.KeyEnter)
	for m.responder.Active() {
		m.Update(streamChunkMsg{id: m.responder.active})
	}
	settle(m)

	m.setComposer("/copy")
	press(m, tea.KeyEnter)
	if clip.text != composeReply("hi", 1) {
		t.Fatalf("clipboard = %q", clip.text)
	}

	m.setComposer("/find message 22")
	press(m, tea.KeyEnter)
	settle(m)
	if m.highlight != "m022" {
		t.Fatalf("highlight = %q, want m022", m.highlight)
	}
	idx := m.transcript.Index("m022")
	if m.viewport.YOffset != m.rendered.LineOf(idx) {
		t.Fatalf("offset = %d, want message start %d", m.viewport.YOffset, m.rendered.LineOf(idx))
	}
	if !m.state.ShowJumpToBottom() {
		t.Fatalf("find is a user scroll and should leave the bottom")
	}

	m.setComposer("/clear")
	press(m, tea.KeyEnter)
	settle(m)
	if m.transcript.Len() != 0 || m.highlight != "" {
		t.Fatalf("clear left %d messages", m.transcript.Len())
	}
	if m.state.ShowJumpToBottom() {
		t.Fatalf("empty transcript should be at the bottom")
	}

	m.setComposer("/bogus")
	press(m, tea.KeyEnter)
	if m.notice != "unknown command: /bogus" {
		t.Fatalf("notice = %q", m.notice)
	}
}

func TestSlashPopupCompletes(t *testing.T) {
	m := newTestModel(t, nil, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/fi")})
	if !m.slash.Open() {
		t.Fatalf("popup should open while typing a command")
	}
	press(m, tea.KeyTab)
	if m.textarea.Value() != "/find " {
		t.Fatalf("composer = %q", m.textarea.Value())
	}
	if m.slash.Open() {
		t.Fatalf("popup should close after completion")
	}
}

func TestInterruptStopsStream(t *testing.T) {
	m := newTestModel(t, nil, nil)
	m.setComposer("stop me")
	press(m, tea.KeyEnter)
	m.Update(streamChunkMsg{id: m.responder.active})

	press(m, tea.KeyEsc)
	if m.responder.Active() || m.transcript.Streaming() {
		t.Fatalf("esc should stop the stream")
	}
	if m.status.State() != StatusIdle || m.notice != "reply stopped" {
		t.Fatalf("status=%v notice=%q", m.status.State(), m.notice)
	}
}

func TestPromptHistoryKeys(t *testing.T) {
	m := newTestModel(t, nil, nil)
	m.setComposer("first")
	press(m, tea.KeyEnter)
	m.responder.Stop()
	m.finishStream()

	press(m, tea.KeyCtrlP)
	if m.textarea.Value() != "first" {
		t.Fatalf("composer = %q, want first", m.textarea.Value())
	}
	press(m, tea.KeyCtrlN)
	if m.textarea.Value() != "" {
		t.Fatalf("composer = %q, want empty draft", m.textarea.Value())
	}
}

func TestResizeWhileFollowingStaysAtBottom(t *testing.T) {
	m := newTestModel(t, archiveOf(30), nil)
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	settle(m)
	if !m.viewport.AtBottom() || !m.state.AtBottom {
		t.Fatalf("narrower window should keep the view at the bottom")
	}
}

func TestPromptHistoryPersists(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "prompts.jsonl"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Append("from last session"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	cfg := config.Default()
	cfg.StreamDelayMS = 1
	m := New(Options{Config: cfg, History: store, Logger: logger.Named("tui-test")})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})

	press(m, tea.KeyCtrlP)
	if m.textarea.Value() != "from last session" {
		t.Fatalf("composer = %q", m.textarea.Value())
	}

	m.setComposer("new prompt")
	press(m, tea.KeyEnter)
	got, err := store.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[1] != "new prompt" {
		t.Fatalf("stored prompts = %v", got)
	}
}
