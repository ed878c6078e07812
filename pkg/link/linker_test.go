package link

import (
	"archive/zip"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/linkforge/linkforge/pkg/errors"
	"github.com/linkforge/linkforge/pkg/jdk"
	"github.com/linkforge/linkforge/pkg/module"
	"github.com/linkforge/linkforge/pkg/run"
)

// fakeRunner serves canned results for commands matched by substring.
type fakeRunner struct {
	results map[string]run.Result
	calls   []string
}

func (f *fakeRunner) Run(ctx context.Context, cmd run.Cmd) (run.Result, error) {
	line := cmd.String()
	f.calls = append(f.calls, line)
	for substr, res := range f.results {
		if strings.Contains(line, substr) {
			return res, nil
		}
	}
	return run.Result{ExitCode: 1, Stderr: "no canned result for " + line}, nil
}

func (f *fakeRunner) call(t *testing.T, substr string) (string, int) {
	t.Helper()
	for i, line := range f.calls {
		if strings.Contains(line, substr) {
			return line, i
		}
	}
	t.Fatalf("no recorded call containing %q in %v", substr, f.calls)
	return "", -1
}

const baseDescribeOutput = "java.base@21\nexports java.io\nexports java.lang\n"

// linkRunner serves every tool invocation of a full link run against a
// runtime whose only module is java.base.
func linkRunner() *fakeRunner {
	return &fakeRunner{results: map[string]run.Result{
		"jmod describe":        {Stdout: baseDescribeOutput},
		"-XX:+PrintFlagsFinal": {Stdout: "[Global flags]\n"},
		"--list-plugins":       {Stdout: "List of available plugins:\n"},
		"bin/javac":            {},
		"jmod create":          {},
		"--output=":            {},
		"-Xshare:dump":         {},
	}}
}

// newLinkTestHome is newTestHome plus a base module archive realistic enough
// for the policy patch step.
func newLinkTestHome(t *testing.T, runner *fakeRunner) *jdk.JDK {
	t.Helper()
	j := newTestHome(t, runner)
	writeTestJmod(t, j.BaseJmod(), map[string]string{
		"classes/module-info.class": "stub",
		policyEntry:                 "// default policy\n",
	})
	return j
}

func TestLinkerRunEndToEnd(t *testing.T) {
	runner := linkRunner()
	j := newLinkTestHome(t, runner)
	dest := filepath.Join(t.TempDir(), "image")

	truffle := &module.Descriptor{
		Name:        "org.graalvm.truffle",
		Exports:     map[string][]string{"com.oracle.truffle.api": {"com.oracle.truffle.enterprise"}},
		ArchivePath: filepath.Join(t.TempDir(), "truffle.jar"),
	}

	l := New(runner, nil, nil)
	report, err := l.Run(context.Background(), &Request{
		JDK:     j,
		DestDir: dest,
		Modules: []*module.Descriptor{truffle},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantSynthetics := []string{"com.oracle.truffle.enterprise"}
	if len(report.Synthetics) != 1 || report.Synthetics[0] != wantSynthetics[0] {
		t.Errorf("Synthetics = %v, want %v", report.Synthetics, wantSynthetics)
	}
	for _, name := range []string{"java.base", "org.graalvm.truffle", "com.oracle.truffle.enterprise"} {
		found := false
		for _, n := range report.Universe {
			if n == name {
				found = true
			}
		}
		if !found {
			t.Errorf("Universe %v is missing %s", report.Universe, name)
		}
	}

	// Placeholder compilation, packaging, link, and startup cache run in
	// that order.
	_, javacIdx := runner.call(t, "bin/javac")
	_, jmodIdx := runner.call(t, "jmod create")
	jlinkLine, jlinkIdx := runner.call(t, "--output=")
	_, dumpIdx := runner.call(t, "-Xshare:dump")
	if !(javacIdx < jmodIdx && jmodIdx < jlinkIdx && jlinkIdx < dumpIdx) {
		t.Errorf("tool invocations out of order: javac=%d jmod=%d jlink=%d dump=%d",
			javacIdx, jmodIdx, jlinkIdx, dumpIdx)
	}

	// The synthetic archive and the supplied archive are on the module path.
	if !strings.Contains(jlinkLine, "com.oracle.truffle.enterprise.jmod") {
		t.Errorf("jlink module path is missing the placeholder archive: %s", jlinkLine)
	}
	if !strings.Contains(jlinkLine, "truffle.jar") {
		t.Errorf("jlink module path is missing the supplied archive: %s", jlinkLine)
	}
	if !strings.Contains(jlinkLine, "--add-modules=com.oracle.truffle.enterprise,java.base,org.graalvm.truffle") {
		t.Errorf("jlink root set is not the sorted universe: %s", jlinkLine)
	}

	// The source bundle was written and carries the replacement module's
	// synthesized module-info.
	r, err := zip.OpenReader(filepath.Join(dest, "lib", "src.zip"))
	if err != nil {
		t.Fatalf("source bundle: %v", err)
	}
	defer r.Close()
	found := false
	for _, f := range r.File {
		if f.Name == "org.graalvm.truffle/module-info.java" {
			found = true
		}
	}
	if !found {
		t.Error("source bundle is missing org.graalvm.truffle/module-info.java")
	}

	// The scratch directory is gone.
	leftovers, err := filepath.Glob(dest + ".build-*")
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Errorf("build directory not cleaned up: %v", leftovers)
	}
}

func TestLinkerRunToolFailure(t *testing.T) {
	runner := linkRunner()
	runner.results["--output="] = run.Result{ExitCode: 1, Stderr: "Error: hash of java.base differs"}
	j := newLinkTestHome(t, runner)
	dest := filepath.Join(t.TempDir(), "image")

	l := New(runner, nil, nil)
	_, err := l.Run(context.Background(), &Request{JDK: j, DestDir: dest})
	if err == nil {
		t.Fatal("expected error for failing link tool")
	}
	if code := errors.GetCode(err); code != errors.ErrCodeLinkTool {
		t.Errorf("code = %q, want %q", code, errors.ErrCodeLinkTool)
	}
	if !strings.Contains(err.Error(), "hash of java.base differs") {
		t.Errorf("error does not carry tool output: %v", err)
	}

	// The scratch directory is released on failure exactly as on success.
	leftovers, err := filepath.Glob(dest + ".build-*")
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Errorf("build directory retained after tool failure: %v", leftovers)
	}
}

func TestLinkerRunToolFailureKeepBuildDirRequested(t *testing.T) {
	runner := linkRunner()
	runner.results["--output="] = run.Result{ExitCode: 1, Stderr: "Error: hash of java.base differs"}
	j := newLinkTestHome(t, runner)
	dest := filepath.Join(t.TempDir(), "image")

	l := New(runner, nil, nil)
	_, err := l.Run(context.Background(), &Request{JDK: j, DestDir: dest, KeepBuildDir: true})
	if err == nil {
		t.Fatal("expected error for failing link tool")
	}

	// Only an explicit request retains the scratch inputs for re-execution.
	leftovers, err := filepath.Glob(dest + ".build-*")
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 1 {
		t.Errorf("build directory missing despite KeepBuildDir: %v", leftovers)
	}
}

func TestLinkerRunPolicyError(t *testing.T) {
	runner := linkRunner()
	j := newLinkTestHome(t, runner)
	dest := filepath.Join(t.TempDir(), "image")

	truffle := &module.Descriptor{
		Name:        "org.graalvm.truffle",
		Exports:     map[string][]string{"com.oracle.truffle.api": {"com.oracle.truffle.enterprise"}},
		ArchivePath: "truffle.jar",
	}

	l := New(runner, nil, nil)
	_, err := l.Run(context.Background(), &Request{
		JDK:                 j,
		DestDir:             dest,
		Modules:             []*module.Descriptor{truffle},
		MissingExportPolicy: PolicyError,
	})
	if err == nil {
		t.Fatal("expected error under PolicyError")
	}
	if code := errors.GetCode(err); code != errors.ErrCodeUnresolvedExportTarget {
		t.Errorf("code = %q, want %q", code, errors.ErrCodeUnresolvedExportTarget)
	}
	for _, line := range runner.calls {
		if strings.Contains(line, "--output=") {
			t.Error("link tool invoked despite resolution failure")
		}
	}
}

func TestLinkerRunRefusesExistingDest(t *testing.T) {
	runner := linkRunner()
	j := newLinkTestHome(t, runner)
	dest := t.TempDir()

	l := New(runner, nil, nil)
	_, err := l.Run(context.Background(), &Request{JDK: j, DestDir: dest})
	if err == nil {
		t.Fatal("expected error for existing destination")
	}
	if code := errors.GetCode(err); code != errors.ErrCodeInvalidInput {
		t.Errorf("code = %q, want %q", code, errors.ErrCodeInvalidInput)
	}
}

func TestLinkerRunPolicyNoneReportsUnresolved(t *testing.T) {
	runner := linkRunner()
	j := newLinkTestHome(t, runner)
	dest := filepath.Join(t.TempDir(), "image")

	truffle := &module.Descriptor{
		Name:        "org.graalvm.truffle",
		Exports:     map[string][]string{"com.oracle.truffle.api": {"com.oracle.truffle.enterprise"}},
		ArchivePath: "truffle.jar",
	}

	l := New(runner, nil, nil)
	report, err := l.Run(context.Background(), &Request{
		JDK:                 j,
		DestDir:             dest,
		Modules:             []*module.Descriptor{truffle},
		MissingExportPolicy: PolicyNone,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Synthetics) != 0 {
		t.Errorf("Synthetics = %v, want none", report.Synthetics)
	}
	exporters := report.Unresolved["com.oracle.truffle.enterprise"]
	if len(exporters) != 1 || exporters[0] != "org.graalvm.truffle" {
		t.Errorf("Unresolved = %v", report.Unresolved)
	}
	for _, line := range runner.calls {
		if strings.Contains(line, "bin/javac") {
			t.Error("placeholder compiled despite PolicyNone")
		}
	}
}
