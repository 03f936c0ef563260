package tui

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"chatscroll/internal/config"
	"chatscroll/internal/history"
	"chatscroll/internal/logger"
	"chatscroll/internal/scroll"
	"chatscroll/internal/transcript"
	"chatscroll/internal/tui/render"
	"chatscroll/internal/tui/slash"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

type Options struct {
	Config  config.Config
	Archive *transcript.Archive
	// Initial 是启动时显示的消息，通常为归档的最后一页。
	Initial []transcript.Message
	Logger  *logger.LogEntry
	// ScrollLogger 非空时用于滚动状态机的转换日志。
	ScrollLogger *logger.LogEntry
	// Inline 为 true 时不使用备用屏幕。
	Inline bool
	// History 非空时输入历史跨会话保存。
	History *history.Store
	// Clipboard 默认为系统剪贴板。
	Clipboard func(string) error
	Clock     func() time.Time
}

type systemMsg struct {
	Text string
}

var errNoOlder = errors.New("no older messages in archive")

type Model struct {
	textarea textarea.Model
	viewport *render.Viewport
	spin     spinner.Model
	keys     keyMap
	slash    *slash.State
	history  promptHistory
	prompts  *history.Store
	status   *StatusIndicator

	sched  *frameScheduler
	scroll *scroll.Machine
	state  scroll.State

	transcript     *transcript.Transcript
	archive        *transcript.Archive
	oldestID       string
	olderExhausted bool
	pageSize       int

	responder *responder
	turns     int
	markdown  *render.Markdown
	rendered  render.Rendered
	highlight string
	copy      func(string) error

	log             *logger.LogEntry
	notice          string
	width           int
	height          int
	showHelp        bool
	transcriptDirty bool
	relayout        bool
}

func New(opts Options) *Model {
	cfg := opts.Config

	ti := textarea.New()
	ti.Placeholder = "Type a message, or / for commands…"
	ti.Prompt = "› "
	ti.CharLimit = 0
	ti.SetWidth(86)
	ti.SetHeight(1) // 默认单行，按需扩展
	ti.ShowLineNumbers = false
	ti.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	log := opts.Logger
	if log == nil {
		log = logger.Named("tui")
	}
	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	sched := newFrameScheduler(cfg.Frame())
	machine := scroll.NewMachine(scroll.Options{
		Scheduler:      sched,
		Logger:         opts.ScrollLogger,
		Threshold:      cfg.VisibilityThreshold,
		SmoothDuration: cfg.SmoothScroll(),
		SettleDelay:    cfg.Settle(),
		Spring: scroll.SpringConfig{
			FPS:       cfg.FPS(),
			Frequency: cfg.SpringFrequency,
			Damping:   cfg.SpringDamping,
		},
	})

	m := &Model{
		textarea:        ti,
		viewport:        render.NewViewport(86, 12),
		spin:            spin,
		keys:            defaultKeyMap(),
		slash:           slash.NewState(),
		status:          NewStatusIndicator(opts.Clock),
		sched:           sched,
		scroll:          machine,
		state:           machine.State(),
		transcript:      transcript.New(opts.Initial...),
		archive:         opts.Archive,
		pageSize:        cfg.PageSize,
		responder:       newResponder(cfg.StreamDelay()),
		prompts:         opts.History,
		copy:            copyFn,
		log:             log,
		width:           90,
		height:          24,
		transcriptDirty: true,
	}
	if m.pageSize <= 0 {
		m.pageSize = config.Default().PageSize
	}
	if cfg.Markdown {
		m.markdown = render.NewMarkdown("dark")
	}
	if m.prompts != nil {
		if texts, err := m.prompts.Recent(maxPromptHistory); err != nil {
			log.WithError(err).Warn("load prompt history failed")
		} else {
			m.history.Load(texts)
		}
	}
	if first, ok := m.transcript.First(); ok {
		m.oldestID = first.ID
	}
	machine.Subscribe(m.onScrollState)
	m.resize(m.width, m.height)
	m.flushTranscript()
	machine.Attach(m.viewport, m.viewport)
	// 初始内容直接停在底部。
	machine.ScrollToBottom(false)
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, textarea.Blink}
	cmds = append(cmds, m.sched.Drain()...)
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m.finish(cmds...)
	case frameMsg:
		m.sched.Frame()
		return m.finish(cmds...)
	case timerMsg:
		m.sched.Fire(msg.id)
		return m.finish(cmds...)
	case streamChunkMsg:
		cmds = append(cmds, m.handleChunk(msg))
		return m.finish(cmds...)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
		return m.finish(cmds...)
	case systemMsg:
		m.transcript.Append(transcript.NewMessage(transcript.RoleSystem, msg.Text))
		m.refreshTranscript()
		return m.finish(cmds...)
	case tea.MouseMsg:
		cmds = append(cmds, m.handleMouse(msg))
		return m.finish(cmds...)
	case tea.KeyMsg:
		m.notice = ""
		if cmd, handled := m.handleKey(msg); handled {
			cmds = append(cmds, cmd)
			return m.finish(cmds...)
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.slash.SyncInput(m.textarea.Value())
	m.setComposerHeight()
	cmds = append(cmds, cmd)
	return m.finish(cmds...)
}

func (m *Model) finish(cmds ...tea.Cmd) (tea.Model, tea.Cmd) {
	m.flushTranscript()
	if m.relayout {
		m.relayout = false
		m.scroll.Relayout()
	}
	cmds = append(cmds, m.sched.Drain()...)
	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	header := m.renderHeader()
	chatBody := lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), m.renderScrollStatus())
	chatPane := renderPane("", chatBody, m.width, m.viewport.Height+1)
	composer := renderPane("Message", m.textarea.View(), m.width, m.textarea.Height()+1)
	status := m.renderStatusLine()
	content := lipgloss.JoinVertical(lipgloss.Left, header, chatPane, composer, status)

	if m.slash.Open() {
		overlay := modalStyle.Render(m.slash.View(maxInt(20, m.width-6)))
		return lipgloss.JoinVertical(lipgloss.Left, content, overlay)
	}
	if m.showHelp {
		return lipgloss.JoinVertical(lipgloss.Left, content, modalStyle.Render(m.helpText()))
	}
	return content
}

// Messages 返回当前会话的消息副本。
func (m *Model) Messages() []transcript.Message {
	return m.transcript.Messages()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if key.Matches(msg, m.keys.Quit) {
		return tea.Quit, true
	}
	if m.showHelp && (key.Matches(msg, m.keys.Help) || msg.String() == "esc") {
		m.showHelp = false
		return nil, true
	}
	if action, handled := m.slash.HandleKey(msg.String()); handled {
		return m.applySlash(action), true
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return nil, true
	case key.Matches(msg, m.keys.Interrupt):
		if m.responder.Active() {
			m.stopStream()
			return nil, true
		}
		if m.highlight != "" {
			m.highlight = ""
			m.refreshTranscript()
			return nil, true
		}
	case key.Matches(msg, m.keys.Newline):
		m.textarea.InsertString("\n")
		m.setComposerHeight()
		return nil, true
	case key.Matches(msg, m.keys.Send):
		return m.submit(), true
	case key.Matches(msg, m.keys.Bottom):
		if msg.String() == "end" && m.textarea.Value() != "" {
			return nil, false
		}
		m.jumpToBottom()
		return nil, true
	case key.Matches(msg, m.keys.LoadOlder):
		return m.loadOlder(), true
	case key.Matches(msg, m.keys.PageUp):
		return m.userScroll(-m.viewport.Page()), true
	case key.Matches(msg, m.keys.PageDown):
		return m.userScroll(m.viewport.Page()), true
	case key.Matches(msg, m.keys.Top):
		if m.textarea.Value() != "" {
			return nil, false
		}
		return m.userScroll(-m.viewport.ScrollOffset() - 1), true
	case key.Matches(msg, m.keys.LineUp):
		if m.shouldScrollViewport(tea.KeyUp, msg) {
			return m.userScroll(-1), true
		}
	case key.Matches(msg, m.keys.LineDown):
		if m.shouldScrollViewport(tea.KeyDown, msg) {
			return m.userScroll(1), true
		}
	case key.Matches(msg, m.keys.HistoryPrev):
		if text, ok := m.history.Prev(m.textarea.Value()); ok {
			m.setComposer(text)
		}
		return nil, true
	case key.Matches(msg, m.keys.HistoryNext):
		if text, ok := m.history.Next(); ok {
			m.setComposer(text)
		}
		return nil, true
	}
	return nil, false
}

// userScroll 是用户手势：移动视口并把滚动事件交给状态机；
// 已在顶部继续向上时加载更早的消息。
func (m *Model) userScroll(delta int) tea.Cmd {
	if m.viewport.ScrollBy(delta) {
		m.scroll.OnScroll()
		return nil
	}
	if delta < 0 && m.viewport.AtTop() {
		return m.loadOlder()
	}
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		if m.onBadge(msg.X, msg.Y) {
			m.jumpToBottom()
		}
		return nil
	}
	atTop := m.viewport.AtTop()
	cmd, moved := m.viewport.HandleUpdate(msg)
	if moved {
		m.scroll.OnScroll()
		return cmd
	}
	if atTop && msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelUp {
		return tea.Batch(cmd, m.loadOlder())
	}
	return cmd
}

func (m *Model) jumpToBottom() {
	m.scroll.JumpToBottom()
	m.log.Debug("jump to bottom")
}

func (m *Model) shouldScrollViewport(direction tea.KeyType, msg tea.KeyMsg) bool {
	if msg.Alt || m.textarea.Value() == "" {
		return true
	}

	lineInfo := m.textarea.LineInfo()
	if lineInfo.Height < 1 {
		lineInfo.Height = 1
	}

	atTop := m.textarea.Line() == 0 && lineInfo.RowOffset == 0
	lastLine := m.textarea.LineCount() - 1
	if lastLine < 0 {
		lastLine = 0
	}
	atBottomLine := m.textarea.Line() >= lastLine
	atBottomRow := lineInfo.RowOffset >= lineInfo.Height-1

	switch direction {
	case tea.KeyUp:
		return atTop
	case tea.KeyDown:
		return atBottomLine && atBottomRow
	default:
		return false
	}
}

func (m *Model) submit() tea.Cmd {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return nil
	}
	if strings.HasPrefix(input, "/") {
		m.setComposer("")
		action := m.slash.ResolveSubmit(input)
		if action.Kind == slash.ActionNone {
			m.notice = fmt.Sprintf("unknown command: %s", strings.Fields(input)[0])
			return nil
		}
		return m.runCommand(action.Command, action.Args)
	}
	if m.responder.Active() {
		m.notice = "wait for the reply to finish, or press esc"
		return nil
	}
	m.history.Add(input)
	if m.prompts != nil {
		if err := m.prompts.Append(input); err != nil {
			m.log.WithError(err).Warn("save prompt history failed")
		}
	}
	m.setComposer("")

	m.transcript.Append(transcript.NewMessage(transcript.RoleUser, input))
	m.transcript.BeginAssistant()
	m.turns++
	m.highlight = ""
	m.status.SetState(StatusStreaming)
	m.refreshTranscript()
	// 发送总是回到最新消息并恢复跟随。
	m.scroll.JumpToBottom()
	m.log.WithField("turn", m.turns).Info("message sent")
	return m.responder.Start(input, m.turns)
}

func (m *Model) handleChunk(msg streamChunkMsg) tea.Cmd {
	chunk, done, ok := m.responder.Next(msg.id)
	if !ok {
		return nil
	}
	if done {
		m.finishStream()
		return nil
	}
	m.transcript.AppendChunk(chunk)
	m.refreshTranscript()
	return m.responder.tick()
}

func (m *Model) finishStream() {
	m.transcript.FinishStream()
	m.status.SetState(StatusIdle)
	m.refreshTranscript()
}

func (m *Model) stopStream() {
	m.responder.Stop()
	m.finishStream()
	m.notice = "reply stopped"
	m.log.Info("reply interrupted")
}

// loadOlder 从归档取一页更早的消息插到顶部，由状态机保持视口位置。
func (m *Model) loadOlder() tea.Cmd {
	if m.archive == nil || m.archive.Len() == 0 {
		m.notice = "no archive configured"
		return nil
	}
	if m.olderExhausted {
		m.notice = "beginning of archive"
		return nil
	}
	var added int
	err := m.scroll.LoadOlder(func() error {
		page := m.archive.Older(m.oldestID, m.pageSize)
		if len(page) == 0 {
			return errNoOlder
		}
		added = m.transcript.Prepend(page)
		m.oldestID = page[0].ID
		// 新行必须在补偿帧之前进入视口。
		m.refreshTranscript()
		m.flushTranscript()
		return nil
	})
	switch {
	case err == nil:
		m.status.SetState(StatusLoading)
		m.log.WithField("messages", added).Info("loaded older messages")
	case errors.Is(err, errNoOlder):
		m.olderExhausted = true
		m.notice = "beginning of archive"
	case errors.Is(err, scroll.ErrLoadInProgress):
	default:
		m.status.SetError(err)
		m.log.WithError(err).Warn("load older failed")
	}
	return nil
}

func (m *Model) onScrollState(s scroll.State) {
	prev := m.state
	m.state = s
	if prev.LoadingOlder && !s.LoadingOlder && m.status.State() == StatusLoading {
		if m.responder.Active() {
			m.status.SetState(StatusStreaming)
		} else {
			m.status.SetState(StatusIdle)
		}
	}
}

func (m *Model) applySlash(action slash.Action) tea.Cmd {
	switch action.Kind {
	case slash.ActionInsert:
		m.setComposer(action.NewValue)
	case slash.ActionSubmitCommand:
		m.setComposer("")
		return m.runCommand(action.Command, action.Args)
	}
	return nil
}

func (m *Model) runCommand(cmd slash.Command, args string) tea.Cmd {
	m.log.WithField("command", string(cmd)).Debug("slash command")
	switch cmd {
	case slash.CommandQuit:
		return tea.Quit
	case slash.CommandHelp:
		m.showHelp = true
	case slash.CommandBottom:
		m.jumpToBottom()
	case slash.CommandOlder:
		return m.loadOlder()
	case slash.CommandClear:
		if m.responder.Active() {
			m.responder.Stop()
			m.status.SetState(StatusIdle)
		}
		m.transcript.Reset()
		m.oldestID = ""
		m.olderExhausted = false
		m.highlight = ""
		m.refreshTranscript()
	case slash.CommandCopy:
		msg, ok := m.transcript.LastOf(transcript.RoleAssistant)
		if !ok || msg.Content == "" {
			m.notice = "nothing to copy"
			return nil
		}
		if err := m.copy(msg.Content); err != nil {
			m.status.SetError(fmt.Errorf("copy: %w", err))
			return nil
		}
		m.notice = fmt.Sprintf("copied %d characters", len([]rune(msg.Content)))
	case slash.CommandFind:
		m.find(args)
	}
	return nil
}

// find 模糊匹配消息内容，高亮最佳结果并把它滚到视口顶部（视为用户滚动）。
func (m *Model) find(query string) {
	if strings.TrimSpace(query) == "" {
		m.notice = "usage: /find <text>"
		return
	}
	msgs := m.transcript.Messages()
	contents := make([]string, len(msgs))
	for i, msg := range msgs {
		contents[i] = msg.Content
	}
	results := fuzzy.Find(query, contents)
	if len(results) == 0 {
		m.notice = fmt.Sprintf("no match for %q", query)
		return
	}
	best := results[0].Index
	m.highlight = msgs[best].ID
	m.refreshTranscript()
	m.flushTranscript()
	if line := m.rendered.LineOf(best); line >= 0 && m.viewport.ScrollBy(line-m.viewport.ScrollOffset()) {
		m.scroll.OnScroll()
	}
	m.notice = fmt.Sprintf("best of %d matches", len(results))
}

func (m *Model) setComposer(text string) {
	m.textarea.SetValue(text)
	m.textarea.CursorEnd()
	m.slash.SyncInput(text)
	m.setComposerHeight()
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	headerHeight := lipgloss.Height(m.renderHeader())
	composerHeight := m.textarea.Height() + 1 + 2 // title + border
	statusHeight := 1
	paneHeight := height - headerHeight - composerHeight - statusHeight - 2 // border
	viewHeight := paneHeight - 1                                             // scroll status row
	if viewHeight < 1 {
		viewHeight = 1
	}
	innerWidth := maxInt(10, width-4) // border + padding
	if m.viewport.Resize(innerWidth, viewHeight) {
		m.refreshTranscript()
	}
	m.textarea.SetWidth(innerWidth)
	m.relayout = true
}

func (m *Model) setComposerHeight() {
	lines := strings.Count(m.textarea.Value(), "\n") + 1
	if lines > 6 {
		lines = 6
	}
	if m.textarea.Height() != lines {
		m.textarea.SetHeight(lines)
		if m.width > 0 && m.height > 0 {
			m.resize(m.width, m.height)
		}
	}
}

func (m *Model) refreshTranscript() {
	m.transcriptDirty = true
}

// flushTranscript 重新渲染并上报内容变化；跟随决策由状态机在下一帧完成。
func (m *Model) flushTranscript() {
	if !m.transcriptDirty {
		return
	}
	m.transcriptDirty = false
	m.rendered = render.RenderMessages(m.transcript.Messages(), m.viewport.Width, render.Options{
		Markdown:  m.markdown,
		Highlight: m.highlight,
	})
	lines := render.LinesToStrings(m.rendered.Lines)
	if len(lines) == 0 {
		lines = []string{welcomeText}
	}
	m.viewport.SetLines(lines)
	m.scroll.ContentChanged(m.transcript.TailVersion(), m.transcript.Streaming())
}

const welcomeText = "Welcome to chatscroll. Type a message to start; ctrl+o loads older history."

var (
	accentColor = lipgloss.Color("#7D56F4")
	mutedColor  = lipgloss.Color("#7D7A85")
	badgeStyle  = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1F1D2B")).
			Background(lipgloss.Color("#FFB454")).
			Bold(true).
			Padding(0, 1)
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			BorderForeground(lipgloss.Color("#FFB454"))
)

const badgeText = "↓ Jump to latest"

func (m *Model) renderHeader() string {
	left := lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("chatscroll")
	follow := "off"
	if m.state.AutoFollow {
		follow = "on"
	}
	info := []string{
		fmt.Sprintf("%d messages", m.transcript.Len()),
		fmt.Sprintf("follow %s", follow),
	}
	if m.archive != nil {
		info = append(info, fmt.Sprintf("archive %d", m.archive.Len()))
	}
	right := lipgloss.NewStyle().Foreground(mutedColor).Render(strings.Join(info, " • "))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(maxInt(20, m.width-2)).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, left, lipgloss.NewStyle().PaddingLeft(2).Render(right)))
}

// renderScrollStatus 渲染视口下方一行：需要时显示“跳到底部”徽标，否则显示滚动进度。
func (m *Model) renderScrollStatus() string {
	if m.state.ShowJumpToBottom() {
		return badgeStyle.Render(badgeText)
	}
	percent := int(math.Round(m.viewport.ScrollPercent() * 100))
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	width := m.viewport.Width - 12
	if width < 10 {
		width = 10
	}
	filled := int(math.Round(float64(width) * float64(percent) / 100.0))
	if filled > width {
		filled = width
	}
	bar := "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
	return lipgloss.NewStyle().
		Foreground(mutedColor).
		Render(fmt.Sprintf("%s %3d%%", bar, percent))
}

// onBadge 判断点击是否落在“跳到底部”徽标上。
func (m *Model) onBadge(x, y int) bool {
	if !m.state.ShowJumpToBottom() {
		return false
	}
	row := lipgloss.Height(m.renderHeader()) + 1 + m.viewport.Height
	left := 2 // border + padding
	return y == row && x >= left && x < left+lipgloss.Width(badgeStyle.Render(badgeText))
}

func (m *Model) renderStatusLine() string {
	hint := m.notice
	if hint == "" {
		hint = "enter send • ctrl+o older • end latest • f1 help"
	}
	line := m.status.Line(m.spin.View(), hint, maxInt(10, m.width-2))
	return lipgloss.NewStyle().
		Foreground(mutedColor).
		Padding(0, 1).
		Width(maxInt(20, m.width)).
		Render(render.LinesToStrings([]render.Line{line})[0])
}

func (m *Model) helpText() string {
	lines := []string{"Keys"}
	for _, b := range m.keys.helpBindings() {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("  %-10s %s", h.Key, h.Desc))
	}
	lines = append(lines, "", "Commands")
	for _, it := range slash.Builtins() {
		lines = append(lines, fmt.Sprintf("  %-10s %s", it.DisplayName(), it.Description))
	}
	return strings.Join(lines, "\n")
}

func renderPane(title string, body string, width int, height int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#5E6472")).
		Padding(0, 1)
	if width > 2 {
		style = style.Width(width - 2)
	}
	if height > 0 {
		style = style.Height(height)
	}
	content := body
	if strings.TrimSpace(title) != "" {
		titleText := lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render(title)
		content = lipgloss.JoinVertical(lipgloss.Left, titleText, body)
	}
	return style.Render(content)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
