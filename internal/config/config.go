package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config 是唯一持久化的配置文件结构。
type Config struct {
	// VisibilityThreshold 是底部锚点被视为可见所需的最小可见比例。
	VisibilityThreshold float64 `toml:"visibility_threshold"`
	SmoothScrollMS      int     `toml:"smooth_scroll_ms"`
	SettleMS            int     `toml:"settle_ms"`
	FrameMS             int     `toml:"frame_ms"`
	SpringFrequency     float64 `toml:"spring_frequency"`
	SpringDamping       float64 `toml:"spring_damping"`

	Archive       string `toml:"archive"`
	PageSize      int    `toml:"page_size"`
	Markdown      bool   `toml:"markdown"`
	StreamDelayMS int    `toml:"stream_delay_ms"`
	LogPath       string `toml:"log_path"`
	LogLevel      string `toml:"log_level"`
	// HistoryPath 为空时使用 ~/.chatscroll/prompts.jsonl。
	HistoryPath string `toml:"history_path"`

	Source string `toml:"-"`
}

func Default() Config {
	return Config{
		VisibilityThreshold: 0.1,
		SmoothScrollMS:      500,
		SettleMS:            500,
		FrameMS:             16,
		SpringFrequency:     12,
		SpringDamping:       1,
		PageSize:            20,
		StreamDelayMS:       40,
		LogLevel:            "info",
	}
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".chatscroll", "config.toml")
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, errors.New("config path is empty and $HOME is not set")
	}
	cfg.Source = path

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return applyEnv(cfg), nil
		}
		return cfg, err
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return applyEnv(cfg).normalize(), nil
}

func applyEnv(cfg Config) Config {
	if env := strings.TrimSpace(os.Getenv("CHATSCROLL_ARCHIVE")); env != "" {
		cfg.Archive = env
	}
	if env := strings.TrimSpace(os.Getenv("CHATSCROLL_LOG")); env != "" {
		cfg.LogPath = env
	}
	return cfg
}

// normalize 将非法或缺省的数值恢复为默认值。
func (c Config) normalize() Config {
	def := Default()
	if c.VisibilityThreshold <= 0 || c.VisibilityThreshold > 1 {
		c.VisibilityThreshold = def.VisibilityThreshold
	}
	if c.SmoothScrollMS <= 0 {
		c.SmoothScrollMS = def.SmoothScrollMS
	}
	if c.SettleMS <= 0 {
		c.SettleMS = def.SettleMS
	}
	if c.FrameMS <= 0 {
		c.FrameMS = def.FrameMS
	}
	if c.SpringFrequency <= 0 {
		c.SpringFrequency = def.SpringFrequency
	}
	if c.SpringDamping <= 0 {
		c.SpringDamping = def.SpringDamping
	}
	if c.PageSize <= 0 {
		c.PageSize = def.PageSize
	}
	if c.StreamDelayMS < 0 {
		c.StreamDelayMS = def.StreamDelayMS
	}
	return c
}

func (c Config) SmoothScroll() time.Duration { return time.Duration(c.SmoothScrollMS) * time.Millisecond }
func (c Config) Settle() time.Duration       { return time.Duration(c.SettleMS) * time.Millisecond }
func (c Config) Frame() time.Duration        { return time.Duration(c.FrameMS) * time.Millisecond }
func (c Config) StreamDelay() time.Duration  { return time.Duration(c.StreamDelayMS) * time.Millisecond }

// FPS 由帧间隔换算，至少为 1。
func (c Config) FPS() int {
	if c.FrameMS <= 0 {
		return 60
	}
	fps := 1000 / c.FrameMS
	if fps < 1 {
		return 1
	}
	return fps
}
