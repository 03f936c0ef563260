package main

import (
	"flag"
	"strconv"
)

// interactiveArgs 是默认 TUI 入口的参数。
type interactiveArgs struct {
	cfgPath         string
	archivePath     string
	inline          bool
	markdown        bool
	logLevel        string
	configOverrides stringSlice
}

func newInteractiveFlagSet(name string) (*flag.FlagSet, *interactiveArgs) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	args := &interactiveArgs{}

	fs.StringVar(&args.cfgPath, "config", "", "Path to config file (default ~/.chatscroll/config.toml)")
	fs.StringVar(&args.archivePath, "archive", "", "Archive of older messages (.json, .jsonl, .yaml)")
	fs.StringVar(&args.archivePath, "a", "", "Alias for --archive")
	fs.BoolVar(&args.inline, "inline", false, "Run without the alternate screen")
	fs.BoolVar(&args.markdown, "markdown", false, "Render assistant replies as markdown")
	fs.StringVar(&args.logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	fs.Var(&args.configOverrides, "c", "Override config value key=value (repeatable)")

	return fs, args
}

// overrides 把显式 flag 转换为 -c 形式，排在用户 -c 之后以便优先生效。
func (i *interactiveArgs) overrides(fs *flag.FlagSet) []string {
	out := append([]string{}, i.configOverrides...)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "archive", "a":
			out = append(out, "archive="+i.archivePath)
		case "markdown":
			out = append(out, "markdown="+strconv.FormatBool(i.markdown))
		case "log-level":
			out = append(out, "log_level="+i.logLevel)
		}
	})
	return out
}
