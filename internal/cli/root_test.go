package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestRootCommandWiresSubcommands(t *testing.T) {
	expected := []string{
		"attrs",
		"clients",
		"config",
		"docs",
		"fetch",
		"history",
		"search",
		"version",
	}

	registered := make(map[string]struct{})
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = struct{}{}
	}

	for _, name := range expected {
		if _, ok := registered[name]; !ok {
			t.Errorf("command %q is not registered on the root command", name)
		}
	}
	for name := range registered {
		switch name {
		case "help", "completion":
			continue
		}
		found := false
		for _, want := range expected {
			if name == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("unexpected command %q registered on the root command", name)
		}
	}
}

// Scripts and the integration harness address the global flags by name,
// so their spelling is part of the CLI surface.
func TestRootCommandGlobalFlags(t *testing.T) {
	flags := make(map[string]*pflag.Flag)
	rootCmd.PersistentFlags().VisitAll(func(flag *pflag.Flag) {
		flags[flag.Name] = flag
	})

	for _, name := range []string{"config", "data-dir", "json"} {
		if _, ok := flags[name]; !ok {
			t.Errorf("global flag %q is missing", name)
		}
	}

	if f, ok := flags["json"]; ok && f.DefValue != "false" {
		t.Errorf("json flag default = %q, want %q", f.DefValue, "false")
	}
}
