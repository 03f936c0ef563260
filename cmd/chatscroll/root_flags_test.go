package main

import (
	"io"
	"reflect"
	"testing"
)

func TestParseRootArgsStopsAtSubcommand(t *testing.T) {
	orig := []string{"seed", "demo.json", "-n", "5"}
	root, rest, err := parseRootArgs(orig)
	if err != nil {
		t.Fatalf("parseRootArgs returned error: %v", err)
	}
	if len(root.overrides) != 0 || root.cfgPath != "" {
		t.Fatalf("expected empty root args, got %+v", root)
	}
	if !reflect.DeepEqual(rest, orig) {
		t.Fatalf("expected rest to preserve args %v, got %v", orig, rest)
	}
}

func TestParseRootArgsExtractsOverrides(t *testing.T) {
	args := []string{
		"-c", "page_size=5",
		"-config=/tmp/c.toml",
		"-c", "markdown=true",
		"config",
	}
	root, rest, err := parseRootArgs(args)
	if err != nil {
		t.Fatalf("parseRootArgs returned error: %v", err)
	}
	if want := []string{"page_size=5", "markdown=true"}; !reflect.DeepEqual(root.overrides, want) {
		t.Fatalf("unexpected overrides: got %v, want %v", root.overrides, want)
	}
	if root.cfgPath != "/tmp/c.toml" {
		t.Fatalf("cfgPath = %q", root.cfgPath)
	}
	if want := []string{"config"}; !reflect.DeepEqual(rest, want) {
		t.Fatalf("unexpected rest args: got %v, want %v", rest, want)
	}
}

func TestInteractiveOverridesFollowExplicitFlags(t *testing.T) {
	fs, cli := newInteractiveFlagSet("test")
	fs.SetOutput(io.Discard)
	if err := fs.Parse([]string{"-c", "archive=old.json", "-a", "new.json", "-markdown"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := cli.overrides(fs)
	want := []string{"archive=old.json", "archive=new.json", "markdown=true"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("overrides = %v, want %v", got, want)
	}

	fs, cli = newInteractiveFlagSet("test")
	fs.SetOutput(io.Discard)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := cli.overrides(fs); len(got) != 0 {
		t.Fatalf("unset flags should not override config: %v", got)
	}
}
