package slash

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// ActionKind 描述按键触发后的处理类型。
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionClose
	ActionInsert
	ActionSubmitCommand
)

// Action 汇总 Slash 处理结果。
type Action struct {
	Kind     ActionKind
	Command  Command
	Args     string
	NewValue string
}

type match struct {
	item       Item
	highlights []int
}

// State 维护 slash 弹窗的匹配与选择状态。
type State struct {
	matches  []match
	selected int
	open     bool
	value    string
}

func NewState() *State {
	return &State{}
}

func (s *State) Open() bool {
	return s != nil && s.open
}

// Close 关闭弹窗，直到输入再次变化。
func (s *State) Close() {
	s.open = false
	s.matches = nil
	s.selected = 0
}

// SyncInput 根据输入框首个 token 更新匹配结果；
// 只有单行、以 / 开头且尚未输入参数时才打开弹窗。
func (s *State) SyncInput(value string) {
	if value == s.value && (s.open || value == "") {
		return
	}
	s.value = value
	if !strings.HasPrefix(value, "/") || strings.ContainsAny(value, " \n") {
		s.Close()
		return
	}
	s.matches = filter(value[1:])
	s.open = true
	if s.selected >= len(s.matches) {
		s.selected = 0
	}
}

func filter(query string) []match {
	if query == "" {
		out := make([]match, 0, len(builtins))
		for _, it := range builtins {
			out = append(out, match{item: it})
		}
		return out
	}
	keys := make([]string, len(builtins))
	for i, it := range builtins {
		keys[i] = string(it.Command)
	}
	results := fuzzy.Find(strings.ToLower(query), keys)
	out := make([]match, 0, len(results))
	for _, res := range results {
		out = append(out, match{item: builtins[res.Index], highlights: res.MatchedIndexes})
	}
	return out
}

// Matches 返回当前匹配到的命令。
func (s *State) Matches() []Item {
	out := make([]Item, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, m.item)
	}
	return out
}

// HandleKey 处理弹窗打开时的按键；handled=false 表示交还给输入框。
func (s *State) HandleKey(key string) (Action, bool) {
	if !s.Open() {
		return Action{}, false
	}
	switch key {
	case "esc":
		s.Close()
		return Action{Kind: ActionClose}, true
	case "up", "ctrl+p":
		if len(s.matches) > 0 {
			s.selected = (s.selected - 1 + len(s.matches)) % len(s.matches)
		}
		return Action{}, true
	case "down", "ctrl+n":
		if len(s.matches) > 0 {
			s.selected = (s.selected + 1) % len(s.matches)
		}
		return Action{}, true
	case "tab":
		it, ok := s.current()
		if !ok {
			return Action{}, true
		}
		value := it.DisplayName()
		if it.TakesArgs {
			value += " "
		}
		s.Close()
		s.value = value
		return Action{Kind: ActionInsert, Command: it.Command, NewValue: value}, true
	case "enter":
		it, ok := s.current()
		if !ok {
			return Action{}, false
		}
		s.Close()
		if it.TakesArgs {
			value := it.DisplayName() + " "
			s.value = value
			return Action{Kind: ActionInsert, Command: it.Command, NewValue: value}, true
		}
		return Action{Kind: ActionSubmitCommand, Command: it.Command}, true
	}
	return Action{}, false
}

func (s *State) current() (Item, bool) {
	if len(s.matches) == 0 || s.selected < 0 || s.selected >= len(s.matches) {
		return Item{}, false
	}
	return s.matches[s.selected].item, true
}

// ResolveSubmit 在弹窗关闭时解析整行输入。
func (s *State) ResolveSubmit(input string) Action {
	cmd, args, ok := Parse(input)
	if !ok {
		return Action{}
	}
	return Action{Kind: ActionSubmitCommand, Command: cmd, Args: args}
}
