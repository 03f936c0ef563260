package slash

import "testing"

func TestSyncInputOpensOnSlashToken(t *testing.T) {
	state := NewState()
	state.SyncInput("/fi")
	if !state.Open() {
		t.Fatalf("expected slash popup to open")
	}
	matches := state.Matches()
	if len(matches) == 0 || matches[0].Command != CommandFind {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

func TestSyncInputOpensOnBareSlash(t *testing.T) {
	state := NewState()
	state.SyncInput("/")
	if !state.Open() || len(state.Matches()) != len(Builtins()) {
		t.Fatalf("bare slash should list every command")
	}
}

func TestSyncInputClosesOnArguments(t *testing.T) {
	state := NewState()
	state.SyncInput("/find")
	state.SyncInput("/find foo")
	if state.Open() {
		t.Fatalf("popup should close once arguments are typed")
	}
	state.SyncInput("hello")
	if state.Open() {
		t.Fatalf("popup should stay closed for plain text")
	}
}

func TestHandleKeyTabCompletesWithArgSpace(t *testing.T) {
	state := NewState()
	state.SyncInput("/fi")
	action, handled := state.HandleKey("tab")
	if !handled || action.Kind != ActionInsert {
		t.Fatalf("unexpected action %+v handled=%v", action, handled)
	}
	if action.NewValue != "/find " {
		t.Fatalf("inserted value = %q", action.NewValue)
	}
	if state.Open() {
		t.Fatalf("popup should close after completion")
	}
}

func TestHandleKeyEnterDispatchesCommand(t *testing.T) {
	state := NewState()
	state.SyncInput("/cop")
	action, handled := state.HandleKey("enter")
	if !handled {
		t.Fatalf("expected enter handled")
	}
	if action.Kind != ActionSubmitCommand || action.Command != CommandCopy {
		t.Fatalf("unexpected action %+v", action)
	}
}

func TestHandleKeyNavigationWraps(t *testing.T) {
	state := NewState()
	state.SyncInput("/")
	state.HandleKey("up")
	action, _ := state.HandleKey("enter")
	if action.Command != CommandQuit {
		t.Fatalf("up from the first entry should wrap to the last, got %+v", action)
	}
}

func TestResolveSubmit(t *testing.T) {
	state := NewState()
	cases := map[string]Action{
		"/find hello world": {Kind: ActionSubmitCommand, Command: CommandFind, Args: "hello world"},
		"/exit":             {Kind: ActionSubmitCommand, Command: CommandQuit},
		"/nope":             {},
		"plain":             {},
	}
	for in, want := range cases {
		if got := state.ResolveSubmit(in); got != want {
			t.Fatalf("ResolveSubmit(%q) = %+v, want %+v", in, got, want)
		}
	}
}
