package subproc

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Invocation describes a single external-tool call: the resolved executable
// path, its ordered argument list, and an optional working directory.
// Invocations are stateless and independent; any coupling between successive
// calls happens through the filesystem artifacts they produce.
type Invocation struct {
	// Path is the resolved filesystem path of the executable.
	Path string

	// Args is the ordered argument list, excluding the executable itself.
	Args []string

	// Dir is the working directory for the subprocess.
	// Empty means the current process's working directory.
	Dir string
}

// CommandLine renders the full command for logging. Arguments containing
// whitespace are quoted so the line can be copy-pasted into a shell.
func (inv Invocation) CommandLine() string {
	parts := make([]string, 0, len(inv.Args)+1)
	parts = append(parts, quoteArg(inv.Path))
	for _, a := range inv.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

// quoteArg wraps an argument in double quotes if it contains whitespace.
func quoteArg(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}

// Result holds the outcome of a completed subprocess invocation.
type Result struct {
	// ExitCode is the subprocess exit code. Zero means success.
	ExitCode int

	// Stdout is the captured standard output.
	Stdout string

	// Stderr is the captured standard error.
	Stderr string
}

// Success reports whether the subprocess exited with code 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// CombinedOutput joins the captured stdout and stderr for display in
// error messages. Either stream may be empty.
func (r Result) CombinedOutput() string {
	switch {
	case r.Stdout == "":
		return r.Stderr
	case r.Stderr == "":
		return r.Stdout
	default:
		return r.Stdout + "\n" + r.Stderr
	}
}

// Runner executes external commands. It exists as an interface so that
// pipeline logic can be tested with a fake runner instead of requiring
// ffmpeg and COLMAP to be installed on the test machine.
type Runner interface {
	// Run executes the invocation and blocks until it completes.
	//
	// A non-zero child exit code is NOT a Go error: it is reported in
	// Result.ExitCode so callers can decide per stage whether the failure
	// is fatal. The returned error is non-nil only when the process could
	// not be started at all (e.g., the executable vanished).
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// Exec is the production Runner backed by os/exec.
type Exec struct{}

// NewExec creates the os/exec-backed Runner.
func NewExec() *Exec {
	return &Exec{}
}

// Run executes the invocation synchronously, capturing stdout and stderr
// separately so error reports can distinguish the two streams.
func (e *Exec) Run(ctx context.Context, inv Invocation) (Result, error) {
	// #nosec G204 — the path is resolved by gsprep and the args are
	// constructed internally, not taken verbatim from untrusted input.
	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Dir = inv.Dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		// Distinguish "ran and exited non-zero" from "could not run".
		// Only the latter is an error to the caller; the former is a
		// normal Result carrying the child's exit code.
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return res, fmt.Errorf("failed to run %s: %w", inv.Path, err)
		}
		res.ExitCode = exitErr.ExitCode()
	}

	return res, nil
}
