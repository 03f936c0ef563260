package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Encode 把有效配置编码为 TOML；Source 非空时在首行写出来源注释。
func Encode(cfg Config) ([]byte, error) {
	data, err := toml.Marshal(cfg.normalize())
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if cfg.Source == "" {
		return data, nil
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", cfg.Source)
	buf.Write(data)
	return buf.Bytes(), nil
}

// Save 写出有效配置（含覆盖项），path 为空时写到默认位置。
func Save(path string, cfg Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return errors.New("config path is empty and $HOME is not set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if cfg.Source == "" {
		cfg.Source = path
	}
	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
