package main

import (
	"flag"
)

type rootArgs struct {
	overrides []string
	cfgPath   string
}

// parseRootArgs 解析子命令之前的全局参数；遇到第一个非 flag 参数即停止。
func parseRootArgs(args []string) (rootArgs, []string, error) {
	fs := flag.NewFlagSet("chatscroll", flag.ContinueOnError)
	var overrides stringSlice
	var cfgPath string
	fs.Var(&overrides, "c", "Override config value key=value (repeatable, applied before subcommand overrides)")
	fs.StringVar(&cfgPath, "config", "", "Path to config file (default ~/.chatscroll/config.toml)")
	if err := fs.Parse(args); err != nil {
		return rootArgs{}, nil, err
	}
	return rootArgs{overrides: append([]string{}, overrides...), cfgPath: cfgPath}, fs.Args(), nil
}

func prependOverrides(root []string, overrides []string) []string {
	merged := append([]string{}, root...)
	return append(merged, overrides...)
}
