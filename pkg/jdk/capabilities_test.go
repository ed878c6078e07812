package jdk

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/linkforge/linkforge/pkg/cache"
	"github.com/linkforge/linkforge/pkg/run"
)

const flagsOutput = `[Global flags]
     bool EnableJVMCI                  = true      {JVMCI product} {default}
     bool EnableJVMCIProduct           = false     {JVMCI product} {default}
     bool UseJVMCICompiler             = false     {JVMCI product} {default}
`

const pluginsWithAddOptions = `List of available plugins:
Plugin Name: add-options
  --add-options <options>  Prepend the specified options string
`

func capProbeRunner(quietProbe bool) *fakeRunner {
	probeOutput := ""
	if !quietProbe {
		probeOutput = "OpenJDK 64-Bit Server VM warning: -XX:ThreadPriorityPolicy=1 may require system level permission"
	}
	return &fakeRunner{results: map[string]run.Result{
		"-XX:+PrintFlagsFinal": {Stdout: flagsOutput},
		"--list-plugins":       {Stdout: pluginsWithAddOptions},
		"--add-options=-XX:ThreadPriorityPolicy=1": {},
		"-version": {Stderr: probeOutput},
	}}
}

func TestCapabilitiesProbing(t *testing.T) {
	home := newFakeJDKHome(t, "21", "java.base")
	runner := capProbeRunner(true)

	j, err := Open(home, runner, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	caps, err := j.Capabilities(context.Background(), cache.NewNullCache())
	if err != nil {
		t.Fatalf("Capabilities() error = %v", err)
	}

	if !caps.JVMCIEnabledByDefault {
		t.Error("JVMCIEnabledByDefault = false, flags output says true")
	}
	if !caps.EnableJVMCIProduct {
		t.Error("EnableJVMCIProduct = false, flag is present in output")
	}
	if !caps.NewJlinkOptions {
		t.Error("NewJlinkOptions = false, --add-options is listed")
	}
	if !caps.ThreadPriorityPolicyQuiet {
		t.Error("ThreadPriorityPolicyQuiet = false, probe output has no warning")
	}
}

func TestCapabilitiesThreadPriorityWarning(t *testing.T) {
	home := newFakeJDKHome(t, "21", "java.base")
	j, err := Open(home, capProbeRunner(false), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	caps, err := j.Capabilities(context.Background(), cache.NewNullCache())
	if err != nil {
		t.Fatalf("Capabilities() error = %v", err)
	}
	if caps.ThreadPriorityPolicyQuiet {
		t.Error("ThreadPriorityPolicyQuiet = true, probe warned")
	}
}

func TestCapabilitiesNoNewJlinkOptions(t *testing.T) {
	home := newFakeJDKHome(t, "21", "java.base")
	runner := &fakeRunner{results: map[string]run.Result{
		"-XX:+PrintFlagsFinal": {Stdout: "[Global flags]\n"},
		"--list-plugins":       {Stdout: "List of available plugins:\n"},
	}}

	j, err := Open(home, runner, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	caps, err := j.Capabilities(context.Background(), cache.NewNullCache())
	if err != nil {
		t.Fatalf("Capabilities() error = %v", err)
	}
	if caps.NewJlinkOptions || caps.JVMCIEnabledByDefault || caps.EnableJVMCIProduct {
		t.Errorf("Capabilities() = %+v, want all false", caps)
	}
	// The throwaway-image probe must not run when the extended options are
	// unsupported.
	for _, call := range runner.calls {
		if strings.Contains(call, "--add-options=-XX:ThreadPriorityPolicy=1") {
			t.Error("ThreadPriorityPolicy probe ran despite missing --add-options support")
		}
	}
}

func TestCapabilitiesCached(t *testing.T) {
	home := newFakeJDKHome(t, "21", "java.base")
	runner := capProbeRunner(true)

	j, err := Open(home, runner, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := j.Capabilities(context.Background(), c); err != nil {
		t.Fatalf("Capabilities() error = %v", err)
	}
	callsAfterFirst := len(runner.calls)

	caps, err := j.Capabilities(context.Background(), c)
	if err != nil {
		t.Fatalf("Capabilities() second call error = %v", err)
	}
	if len(runner.calls) != callsAfterFirst {
		t.Error("Capabilities() re-probed despite cached result")
	}
	if !caps.NewJlinkOptions {
		t.Error("cached Capabilities lost data")
	}
}

func TestThreadPriorityProbeUsesPlatformLauncher(t *testing.T) {
	home := newFakeJDKHome(t, "21", "java.base")
	runner := capProbeRunner(true)

	j, err := Open(home, runner, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := j.Capabilities(context.Background(), cache.NewNullCache()); err != nil {
		t.Fatalf("Capabilities() error = %v", err)
	}

	// The throwaway image's launcher must carry the platform suffix.
	want := filepath.Join("bin", exeName("java")) + " -version"
	found := false
	for _, call := range runner.calls {
		if strings.Contains(call, want) {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("no probe call matching %q in %v", want, runner.calls)
	}
}
