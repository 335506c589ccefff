package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/untoldecay/lorebook/internal/config"
	"github.com/untoldecay/lorebook/internal/layout"
	"github.com/untoldecay/lorebook/internal/loader"
)

func TestDidYouMean(t *testing.T) {
	ids := []string{"alice", "bob", "city_gate"}
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"typo", "alise", `(did you mean "alice"?)`},
		{"substring", "gate", "similar: [city_gate]"},
		{"nothing close", "zzzzzz", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := didYouMean(tt.id, ids)
			if tt.want == "" {
				if got != "" {
					t.Errorf("didYouMean(%q) = %q, want empty", tt.id, got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("didYouMean(%q) = %q, want it to contain %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestShortCommit(t *testing.T) {
	if got := shortCommit("0123456789abcdef"); got != "0123456789ab" {
		t.Errorf("shortCommit = %q", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Errorf("shortCommit = %q", got)
	}
}

func TestBuildSettingOverride(t *testing.T) {
	if got := buildSetting("deadbeef", "vcs.revision"); got != "deadbeef" {
		t.Errorf("buildSetting override = %q", got)
	}
}

func TestKindNames(t *testing.T) {
	names := kindNames()
	if len(names) == 0 {
		t.Fatal("expected document kinds")
	}
	for _, want := range []string{"character", "location", "map"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("kindNames() = %v, missing %q", names, want)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"validate", "build", "schema", "tree", "show", "new", "stats", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd == rootCmd {
			t.Errorf("command %q not registered", name)
		}
	}
}

type trackingCloser struct{ closed int }

func (c *trackingCloser) Close() error {
	c.closed++
	return nil
}

// captureExit records exit codes instead of terminating and installs a
// log closer whose Close calls are counted.
func captureExit(t *testing.T) (*[]int, *trackingCloser) {
	t.Helper()
	var codes []int
	closer := &trackingCloser{}
	osExit = func(code int) { codes = append(codes, code) }
	logCloser = closer
	t.Cleanup(func() {
		osExit = os.Exit
		logCloser = nil
	})
	return &codes, closer
}

func TestFatalErrorClosesLogFile(t *testing.T) {
	codes, closer := captureExit(t)

	FatalError("boom %d", 1)

	if len(*codes) != 1 || (*codes)[0] != 1 {
		t.Errorf("exit codes = %v, want [1]", *codes)
	}
	if closer.closed != 1 {
		t.Errorf("log file closed %d times, want 1", closer.closed)
	}
	closeLog()
	if closer.closed != 1 {
		t.Error("closeLog after exit should not close again")
	}
}

func TestValidateFailureClosesLogFile(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"schemas/vocab.yml":    "tag_prefixes: [species]\nrelationship_types: [friend]\nlocation_types: [city]\nlink_kinds: [lives_in]\n",
		"characters/alice.yml": "id: alice\nprofile:\n  name: Alice\nrelationships:\n  - target_id: ghost\n    type: friend\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	prev := cfg
	cfg = &config.Config{
		Root:      root,
		OutputDir: filepath.Join(root, "site", "data"),
		Workers:   1,
		Spacing:   layout.DefaultSpacing,
		Orphans:   layout.Prune,
		Paths:     loader.DefaultPaths(root),
	}
	t.Cleanup(func() { cfg = prev })
	codes, closer := captureExit(t)

	validateCmd.Run(validateCmd, nil)

	if len(*codes) != 1 || (*codes)[0] != 1 {
		t.Errorf("exit codes = %v, want [1]", *codes)
	}
	if closer.closed != 1 {
		t.Errorf("log file closed %d times, want 1", closer.closed)
	}
}
