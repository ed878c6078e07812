package cli

import (
	"io"
	"testing"
)

func TestRootCommandSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := []string{"link", "components", "verify", "graph", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestRootCommandSilencesUsage(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	if !root.SilenceUsage {
		t.Error("root command should silence usage on errors")
	}
}

func TestSetLogLevel(t *testing.T) {
	c := New(io.Discard, LogInfo)

	if c.Logger.GetLevel() != LogInfo {
		t.Fatalf("initial level = %v, want %v", c.Logger.GetLevel(), LogInfo)
	}

	c.SetLogLevel(LogDebug)
	if c.Logger.GetLevel() != LogDebug {
		t.Errorf("level after SetLogLevel = %v, want %v", c.Logger.GetLevel(), LogDebug)
	}
}
