package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"chatscroll/internal/config"
	"chatscroll/internal/transcript"
)

const defaultSeedCount = 200

func seedMain(root rootArgs, args []string) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	var count int
	fs.IntVar(&count, "n", defaultSeedCount, "Number of messages to generate")
	path, rest := splitPositional(args)
	if err := fs.Parse(rest); err != nil {
		log.Fatalf("parse seed args: %v", err)
	}
	if path == "" && fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if path == "" {
		path = loadConfig(root.cfgPath, root.overrides).Archive
	}
	if err := runSeed(os.Stdout, path, count, time.Now()); err != nil {
		log.Fatalf("seed: %v", err)
	}
}

// splitPositional 允许路径写在 -n 之前（flag 包遇到首个位置参数即停止）。
func splitPositional(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

func runSeed(w io.Writer, path string, count int, now time.Time) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("archive path is required (seed <path> or archive in config)")
	}
	if count <= 0 {
		return fmt.Errorf("message count must be positive, got %d", count)
	}
	archive := transcript.NewArchive(seedMessages(count, now))
	if err := archive.Save(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(w, "wrote %d messages to %s\n", archive.Len(), path)
	return nil
}

var seedTopics = []string{
	"the deployment checklist",
	"why the cache keeps missing",
	"a flaky integration test",
	"naming the new service",
	"the migration plan for the orders table",
	"log retention",
}

// seedMessages 生成一段交替的用户/助手对话，时间戳以分钟递增、结束于 now。
func seedMessages(count int, now time.Time) []transcript.Message {
	start := now.Add(-time.Duration(count) * time.Minute)
	msgs := make([]transcript.Message, 0, count)
	for i := 0; i < count; i++ {
		topic := seedTopics[(i/2)%len(seedTopics)]
		var msg transcript.Message
		if i%2 == 0 {
			msg = transcript.NewMessage(transcript.RoleUser, fmt.Sprintf("#%d Can you help me with %s?", i+1, topic))
		} else {
			lines := []string{fmt.Sprintf("#%d Sure, here is what I know about %s.", i+1, topic)}
			for j := 0; j < i%4; j++ {
				lines = append(lines, fmt.Sprintf("- point %d: keep the change small and check the logs afterwards.", j+1))
			}
			msg = transcript.NewMessage(transcript.RoleAssistant, strings.Join(lines, "\n"))
		}
		msg.Time = start.Add(time.Duration(i) * time.Minute)
		msgs = append(msgs, msg)
	}
	return msgs
}

func configMain(root rootArgs, args []string) {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	var overrides stringSlice
	var save bool
	fs.Var(&overrides, "c", "Override config value key=value (repeatable)")
	fs.BoolVar(&save, "save", false, "Write the effective config back to the config file")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parse config args: %v", err)
	}
	cfg := loadConfig(root.cfgPath, prependOverrides(root.overrides, overrides))
	if err := runConfig(os.Stdout, cfg, save); err != nil {
		log.Fatalf("config: %v", err)
	}
}

// runConfig 打印有效配置；save 为真时同时写回 cfg.Source。
func runConfig(w io.Writer, cfg config.Config, save bool) error {
	if err := writeConfig(w, cfg); err != nil {
		return fmt.Errorf("print config: %w", err)
	}
	if !save {
		return nil
	}
	if err := config.Save(cfg.Source, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	log.WithField("path", cfg.Source).Info("config saved")
	return nil
}

func writeConfig(w io.Writer, cfg config.Config) error {
	data, err := config.Encode(cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
