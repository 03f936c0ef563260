package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap 定义 TUI 的按键绑定。
type keyMap struct {
	Send        key.Binding
	Newline     key.Binding
	LineUp      key.Binding
	LineDown    key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Top         key.Binding
	Bottom      key.Binding
	LoadOlder   key.Binding
	HistoryPrev key.Binding
	HistoryNext key.Binding
	Interrupt   key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter"),
			key.WithHelp("alt+enter", "newline"),
		),
		LineUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "scroll up"),
		),
		LineDown: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "oldest loaded"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "ctrl+j"),
			key.WithHelp("end", "jump to bottom"),
		),
		LoadOlder: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "load older"),
		),
		HistoryPrev: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "previous prompt"),
		),
		HistoryNext: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "next prompt"),
		),
		Interrupt: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "stop reply"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1", "ctrl+g"),
			key.WithHelp("f1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// helpBindings 返回帮助弹窗中展示的绑定，按显示顺序排列。
func (k keyMap) helpBindings() []key.Binding {
	return []key.Binding{
		k.Send, k.Newline, k.LineUp, k.LineDown, k.PageUp, k.PageDown,
		k.Top, k.Bottom, k.LoadOlder, k.HistoryPrev, k.HistoryNext,
		k.Interrupt, k.Help, k.Quit,
	}
}
