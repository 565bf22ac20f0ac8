// Package subproc provides the single narrow subprocess primitive used by
// every external-tool invocation in gsprep.
//
// The whole contract with ffmpeg and COLMAP is request/response against an
// opaque executable: an argument list and optional working directory in,
// an exit code and captured output streams out. This package owns that
// primitive; which arguments to pass and which failures are fatal is
// pipeline-stage logic that lives with the callers.
//
// Execution is synchronous and blocking. No timeouts are imposed: a hung
// external tool hangs the run, matching the tools' interactive behavior.
package subproc
