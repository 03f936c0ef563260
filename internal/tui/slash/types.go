package slash

import "strings"

// Command 表示内置斜杠命令的标识符。
type Command string

const (
	CommandFind   Command = "find"
	CommandCopy   Command = "copy"
	CommandOlder  Command = "older"
	CommandBottom Command = "bottom"
	CommandClear  Command = "clear"
	CommandHelp   Command = "help"
	CommandQuit   Command = "quit"
)

// Item 代表弹窗中的一行条目。
type Item struct {
	Command     Command
	Description string
	// TakesArgs 为 true 时补全后保留一个空格等待参数。
	TakesArgs bool
}

// DisplayName 返回带前缀斜杠的展示名称。
func (i Item) DisplayName() string {
	return "/" + string(i.Command)
}

var builtins = []Item{
	{Command: CommandFind, Description: "jump to the best matching message", TakesArgs: true},
	{Command: CommandCopy, Description: "copy the last assistant reply"},
	{Command: CommandOlder, Description: "load an older page from the archive"},
	{Command: CommandBottom, Description: "scroll to the newest message"},
	{Command: CommandClear, Description: "clear the conversation"},
	{Command: CommandHelp, Description: "show key bindings"},
	{Command: CommandQuit, Description: "exit chatscroll"},
}

// Builtins 返回内置命令列表的副本。
func Builtins() []Item {
	return append([]Item(nil), builtins...)
}

// Parse 解析完整输入；exit 视为 quit 的别名。
func Parse(input string) (Command, string, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", "", false
	}
	name, args, _ := strings.Cut(input[1:], " ")
	if name == "exit" {
		name = string(CommandQuit)
	}
	for _, it := range builtins {
		if string(it.Command) == name {
			return it.Command, strings.TrimSpace(args), true
		}
	}
	return "", "", false
}
