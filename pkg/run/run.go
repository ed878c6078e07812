// Package run provides the external process primitive used by linkforge.
//
// Every external tool invocation (jlink, jmod, jar, javac, and the generated
// image's own java binary) goes through the [Runner] interface so that library
// code never calls os/exec directly. This keeps tool invocations uniform
// (captured output, exit code mapping, context cancellation) and lets tests
// substitute a fake runner.
package run

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// Cmd describes one external process invocation.
type Cmd struct {
	// Path is the executable to run. May be a bare name resolved via PATH
	// or an absolute path.
	Path string
	// Args are the arguments passed to the executable (excluding argv[0]).
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env lists additional environment variables in "KEY=value" form,
	// appended to the parent environment.
	Env []string
}

// String renders the command line for logging.
func (c Cmd) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Result holds the captured outcome of a completed process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports whether the process exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Combined returns stdout followed by stderr, for diagnostics.
func (r Result) Combined() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// Runner executes external processes.
//
// Run blocks until the process exits. A non-zero exit status is not an
// error: it is reported through Result.ExitCode so callers can decide
// whether it is fatal. The returned error is non-nil only when the process
// could not be started or the context was cancelled.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) (Result, error)
}

// ExecRunner runs processes via os/exec with captured output.
type ExecRunner struct {
	// Logger, when set, logs each command line at debug level.
	Logger *log.Logger
}

// NewExecRunner creates a runner that logs command lines to the given logger.
// The logger may be nil.
func NewExecRunner(logger *log.Logger) *ExecRunner {
	return &ExecRunner{Logger: logger}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, c Cmd) (Result, error) {
	if r.Logger != nil {
		r.Logger.Debug("exec", "cmd", c.String())
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		// Process failed to start (missing binary, cancelled context, ...).
		res.ExitCode = -1
		return res, err
	}
	return res, nil
}

// Ensure ExecRunner implements Runner.
var _ Runner = (*ExecRunner)(nil)
