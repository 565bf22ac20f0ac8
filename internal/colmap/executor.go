package colmap

import (
	"context"

	"github.com/litegs/gsprep/internal/subproc"
)

// Executor runs a single COLMAP stage invocation and blocks until it
// completes. args is the full COLMAP argument list starting with the
// subcommand name (e.g., "feature_extractor", "--database_path", ...).
//
// Implementations: Local (resolved binary via os/exec) and
// dockerrun.StageExecutor (official COLMAP image with bind mounts).
// Tests inject fakes to exercise pipeline logic without COLMAP installed.
type Executor interface {
	RunStage(ctx context.Context, args []string) (subproc.Result, error)

	// Describe renders the full command line for the given stage args,
	// used for pre-execution logging.
	Describe(args []string) string
}

// Local executes COLMAP stages by invoking a resolved binary directly.
type Local struct {
	exe    string
	runner subproc.Runner
}

// NewLocal creates a Local executor around a resolved COLMAP path.
func NewLocal(exe string, runner subproc.Runner) *Local {
	return &Local{exe: exe, runner: runner}
}

// RunStage runs one COLMAP subcommand synchronously.
func (l *Local) RunStage(ctx context.Context, args []string) (subproc.Result, error) {
	return l.runner.Run(ctx, subproc.Invocation{Path: l.exe, Args: args})
}

// Describe renders the command line for logging.
func (l *Local) Describe(args []string) string {
	return subproc.Invocation{Path: l.exe, Args: args}.CommandLine()
}
