package cli

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
)

func TestRootCommand(t *testing.T) {
	c := &CLI{Logger: newLogger(io.Discard, log.InfoLevel), Config: DefaultConfig()}
	root := c.RootCommand()

	if root.Use != "mermaid" {
		t.Errorf("Use = %q", root.Use)
	}

	want := map[string]bool{
		"parse":      false,
		"check":      false,
		"serve":      false,
		"cache":      false,
		"completion": false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	c := &CLI{Logger: newLogger(io.Discard, log.InfoLevel), Config: DefaultConfig()}

	c.SetLogLevel(log.DebugLevel)
	if c.Logger.GetLevel() != log.DebugLevel {
		t.Errorf("level = %v", c.Logger.GetLevel())
	}
}

func TestNewFallsBackToDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c := New(io.Discard, log.InfoLevel)
	if c.Config == nil {
		t.Fatal("Config is nil")
	}
	if c.Config.Server.Addr != ":8080" {
		t.Errorf("default addr = %q", c.Config.Server.Addr)
	}
}
