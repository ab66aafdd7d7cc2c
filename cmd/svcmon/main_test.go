package main

import (
	"io"
	"testing"

	"github.com/spf13/cobra"
)

func silence(root *cobra.Command) *cobra.Command {
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root
}

func TestBuildRootCommands(t *testing.T) {
	root := buildRoot()
	want := map[string]bool{"check": false, "serve": false, "status": false, "add": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestRootPersistentConfigFlag(t *testing.T) {
	root := buildRoot()
	if root.PersistentFlags().Lookup("config") == nil {
		t.Fatalf("root must expose --config")
	}
}

func TestAddRequiredFlags(t *testing.T) {
	root := silence(buildRoot())
	root.SetArgs([]string{"add"})
	if err := root.Execute(); err == nil {
		t.Fatalf("add without required flags must fail")
	}
}

func TestStatusRejectsExtraArgs(t *testing.T) {
	root := silence(buildRoot())
	root.SetArgs([]string{"status", "a", "b"})
	if err := root.Execute(); err == nil {
		t.Fatalf("status accepts at most one argument")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "x", "y"); got != "x" {
		t.Errorf("firstNonEmpty = %q", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("firstNonEmpty empty = %q", got)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := loadOrDefault("")
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if cfg.AppName == "" || len(cfg.Services) == 0 {
		t.Fatalf("defaults incomplete: %+v", cfg)
	}
	if _, err := loadOrDefault("/nonexistent/svcmon.toml"); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
