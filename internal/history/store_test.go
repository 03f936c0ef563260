package history

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestStoreRecentSkipsGarbageAndRepeats(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prompts.jsonl")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if got, err := s.Recent(10); err != nil || len(got) != 0 {
		t.Fatalf("Recent on missing file: got=%v err=%v", got, err)
	}
	if err := s.Append("   "); err != nil {
		t.Fatalf("Append whitespace: %v", err)
	}
	for _, text := range []string{"one", "two"} {
		if err := s.Append(text); err != nil {
			t.Fatalf("Append %s: %v", text, err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	f.WriteString(strings.Join([]string{
		`{not json}`,
		`{"text":"two","ts":"2025-01-01T00:00:00Z"}`,
		`{"text":"three","ts":"2025-01-01T00:00:00Z"}`,
		"",
	}, "\n"))
	f.Close()

	got, err := s.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if want := []string{"one", "two", "three"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Recent = %v, want %v", got, want)
	}
	got, _ = s.Recent(2)
	if want := []string{"two", "three"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Recent(2) = %v, want %v", got, want)
	}
}

func TestStoreCompact(t *testing.T) {
	t.Parallel()

	s, _ := Open(filepath.Join(t.TempDir(), "nested", "prompts.jsonl"))
	for _, text := range []string{"a", "b", "c", "d"} {
		if err := s.Append(text); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := s.Compact(2); err != nil {
		t.Fatalf("Compact: %v", err)
	}
	got, err := s.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if want := []string{"c", "d"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("after compact = %v, want %v", got, want)
	}
}

func TestStoreAppendErrors(t *testing.T) {
	t.Parallel()

	var s *Store
	if err := s.Append("hi"); err == nil {
		t.Fatalf("expected error for nil store")
	}

	s = &Store{}
	if err := s.Append("hi"); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := s.Recent(1); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
