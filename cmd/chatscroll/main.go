package main

import (
	"os"
	"path/filepath"

	"chatscroll/internal/config"
	"chatscroll/internal/history"
	"chatscroll/internal/logger"
	"chatscroll/internal/transcript"
	"chatscroll/internal/tui"
)

var log = logger.Named("cli")

const maxStoredPrompts = 1000

func main() {
	logger.Configure()

	root, rest, err := parseRootArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("parse args: %v", err)
	}
	if len(rest) > 0 {
		switch rest[0] {
		case "seed":
			seedMain(root, rest[1:])
			return
		case "config":
			configMain(root, rest[1:])
			return
		}
	}

	runInteractive(root, rest)
}

func runInteractive(root rootArgs, args []string) {
	fs, cli := newInteractiveFlagSet("chatscroll")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parse args: %v", err)
	}
	if cli.cfgPath == "" {
		cli.cfgPath = root.cfgPath
	}
	cfg := loadConfig(cli.cfgPath, prependOverrides(root.overrides, cli.overrides(fs)))

	logFile, logPath, err := logger.SetupFile(cfg.LogPath)
	if err != nil {
		log.Warnf("failed to initialize log file: %v", err)
		logger.Discard()
	} else {
		defer logFile.Close()
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		log.Warnf("invalid log level: %v", err)
	}
	var scrollLog *logger.LogEntry
	if logPath != "" {
		scrollPath := filepath.Join(filepath.Dir(logPath), "scroll.log")
		entry, closer, _, err := logger.SetupComponentFile("scroll", scrollPath)
		if err != nil {
			log.Warnf("failed to initialize scroll log (%s): %v", scrollPath, err)
		} else {
			entry.Logger.SetLevel(logger.Root().GetLevel())
			scrollLog = entry
			defer closer.Close()
		}
	}

	archive, err := transcript.OpenArchive(cfg.Archive)
	if err != nil {
		log.Fatalf("failed to open archive: %v", err)
	}
	prompts, err := history.Open(cfg.HistoryPath)
	if err != nil {
		log.Warnf("prompt history disabled: %v", err)
	}
	log.WithField("archive", cfg.Archive).WithField("messages", archive.Len()).Info("starting chatscroll")

	result, err := tui.Run(tui.Options{
		Config:       cfg,
		Archive:      archive,
		Initial:      archive.Tail(cfg.PageSize),
		Logger:       logger.Named("tui"),
		ScrollLogger: scrollLog,
		Inline:       cli.inline,
		History:      prompts,
	})
	if err != nil {
		log.Fatalf("program exit: %v", err)
	}
	if prompts != nil {
		if err := prompts.Compact(maxStoredPrompts); err != nil {
			log.Warnf("compact prompt history: %v", err)
		}
	}
	log.WithField("messages", len(result.Messages)).Info("session ended")
}

func loadConfig(path string, overrides []string) config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return config.ApplyKVOverrides(cfg, overrides)
}
