package config

import (
	"strconv"
	"strings"
)

// ApplyKVOverrides applies free-form -c key=value overrides.
// Values that fail to parse are ignored.
func ApplyKVOverrides(cfg Config, overrides []string) Config {
	if len(overrides) == 0 {
		return cfg
	}
	for _, raw := range overrides {
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch key {
		case "visibility_threshold":
			setFloat(&cfg.VisibilityThreshold, val)
		case "smooth_scroll_ms":
			setInt(&cfg.SmoothScrollMS, val)
		case "settle_ms":
			setInt(&cfg.SettleMS, val)
		case "frame_ms":
			setInt(&cfg.FrameMS, val)
		case "spring_frequency":
			setFloat(&cfg.SpringFrequency, val)
		case "spring_damping":
			setFloat(&cfg.SpringDamping, val)
		case "archive":
			cfg.Archive = val
		case "page_size":
			setInt(&cfg.PageSize, val)
		case "markdown":
			if b, err := strconv.ParseBool(val); err == nil {
				cfg.Markdown = b
			}
		case "stream_delay_ms":
			setInt(&cfg.StreamDelayMS, val)
		case "log_path":
			cfg.LogPath = val
		case "log_level":
			cfg.LogLevel = val
		case "history_path":
			cfg.HistoryPath = val
		}
	}
	return cfg.normalize()
}

func setInt(dst *int, val string) {
	if n, err := strconv.Atoi(val); err == nil {
		*dst = n
	}
}

func setFloat(dst *float64, val string) {
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		*dst = f
	}
}
