package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chatscroll/internal/config"
	"chatscroll/internal/transcript"
)

func TestSeedMessagesAlternateRoles(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msgs := seedMessages(7, now)
	if len(msgs) != 7 {
		t.Fatalf("len = %d, want 7", len(msgs))
	}
	for i, msg := range msgs {
		want := transcript.RoleUser
		if i%2 == 1 {
			want = transcript.RoleAssistant
		}
		if msg.Role != want {
			t.Fatalf("msg %d role = %s, want %s", i, msg.Role, want)
		}
		if msg.ID == "" {
			t.Fatalf("msg %d has no id", i)
		}
		if i > 0 && !msg.Time.After(msgs[i-1].Time) {
			t.Fatalf("timestamps must increase: %v then %v", msgs[i-1].Time, msg.Time)
		}
	}
	if !msgs[6].Time.Before(now) {
		t.Fatalf("last message should be before now, got %v", msgs[6].Time)
	}
}

func TestRunSeedWritesReadableArchive(t *testing.T) {
	for _, ext := range []string{".json", ".jsonl", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "archive"+ext)
			var out bytes.Buffer
			if err := runSeed(&out, path, 12, time.Now()); err != nil {
				t.Fatalf("runSeed: %v", err)
			}
			if !strings.Contains(out.String(), "wrote 12 messages") {
				t.Fatalf("unexpected output: %q", out.String())
			}
			archive, err := transcript.OpenArchive(path)
			if err != nil {
				t.Fatalf("OpenArchive: %v", err)
			}
			if archive.Len() != 12 {
				t.Fatalf("archive len = %d, want 12", archive.Len())
			}
			if page := archive.Older("", 5); len(page) != 5 || !strings.HasPrefix(page[4].Content, "#12 ") {
				t.Fatalf("unexpected last page: %+v", page)
			}
		})
	}
}

func TestRunSeedRejectsBadInput(t *testing.T) {
	var out bytes.Buffer
	if err := runSeed(&out, "", 10, time.Now()); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if err := runSeed(&out, filepath.Join(t.TempDir(), "a.json"), 0, time.Now()); err == nil {
		t.Fatalf("expected error for zero count")
	}
	if err := runSeed(&out, filepath.Join(t.TempDir(), "a.txt"), 3, time.Now()); err == nil {
		t.Fatalf("expected error for unknown extension")
	}
}

func TestSplitPositional(t *testing.T) {
	path, rest := splitPositional([]string{"demo.json", "-n", "3"})
	if path != "demo.json" || len(rest) != 2 {
		t.Fatalf("path=%q rest=%v", path, rest)
	}
	path, rest = splitPositional([]string{"-n", "3", "demo.json"})
	if path != "" || len(rest) != 3 {
		t.Fatalf("path=%q rest=%v", path, rest)
	}
}

func TestWriteConfigPrintsTOML(t *testing.T) {
	cfg := config.ApplyKVOverrides(config.Default(), []string{"page_size=7", "archive=demo.yaml"})
	cfg.Source = "/tmp/config.toml"
	var out bytes.Buffer
	if err := writeConfig(&out, cfg); err != nil {
		t.Fatalf("writeConfig: %v", err)
	}
	text := out.String()
	for _, want := range []string{"# /tmp/config.toml", "page_size = 7", "demo.yaml", "visibility_threshold = 0.1"} {
		if !strings.Contains(text, want) {
			t.Fatalf("config output missing %q:\n%s", want, text)
		}
	}
}

func TestRunConfigSaveWritesSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.ApplyKVOverrides(config.Default(), []string{"page_size=9"})
	cfg.Source = path
	var out bytes.Buffer
	if err := runConfig(&out, cfg, true); err != nil {
		t.Fatalf("runConfig: %v", err)
	}
	if !strings.Contains(out.String(), "page_size = 9") {
		t.Fatalf("stdout missing effective config:\n%s", out.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != out.String() {
		t.Fatalf("saved file differs from printed config:\n%s\n---\n%s", data, out.String())
	}
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.PageSize != 9 {
		t.Fatalf("PageSize after reload = %d, want 9", loaded.PageSize)
	}
}

func TestRunConfigWithoutSaveLeavesFileAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.Default()
	cfg.Source = path
	if err := runConfig(&bytes.Buffer{}, cfg, false); err != nil {
		t.Fatalf("runConfig: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("config file should not be written without -save, stat err = %v", err)
	}
}
