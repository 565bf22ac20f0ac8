package subproc

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shPath resolves /bin/sh for tests. The runner tests exercise real
// subprocess execution, so they need some executable; sh is the most
// portable choice on the Unix platforms CI runs on.
func shPath(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return path
}

// TestRunCapturesStdoutAndStderr verifies that the two streams are
// captured separately, since error reports want stderr specifically.
func TestRunCapturesStdoutAndStderr(t *testing.T) {
	r := NewExec()

	res, err := r.Run(context.Background(), Invocation{
		Path: shPath(t),
		Args: []string{"-c", "echo out; echo err >&2"},
	})
	require.NoError(t, err)

	assert.True(t, res.Success())
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
}

// TestRunNonZeroExitIsNotAnError verifies the central contract of the
// runner: a child that runs and fails is a normal Result, not a Go error.
// Callers decide per stage whether the failure is fatal.
func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	r := NewExec()

	res, err := r.Run(context.Background(), Invocation{
		Path: shPath(t),
		Args: []string{"-c", "echo diagnostics >&2; exit 7"},
	})
	require.NoError(t, err, "non-zero exit must not be surfaced as an error")

	assert.False(t, res.Success())
	assert.Equal(t, 7, res.ExitCode)
	assert.Equal(t, "diagnostics\n", res.Stderr)
}

// TestRunMissingExecutable verifies that a process that cannot be started
// at all IS an error, unlike a non-zero exit.
func TestRunMissingExecutable(t *testing.T) {
	r := NewExec()

	_, err := r.Run(context.Background(), Invocation{
		Path: "/nonexistent/definitely-not-a-binary",
	})
	assert.Error(t, err)
}

// TestRunWorkingDirectory verifies that Dir is honored.
func TestRunWorkingDirectory(t *testing.T) {
	r := NewExec()
	dir := t.TempDir()

	res, err := r.Run(context.Background(), Invocation{
		Path: shPath(t),
		Args: []string{"-c", "pwd"},
		Dir:  dir,
	})
	require.NoError(t, err)
	require.True(t, res.Success())

	// Compare via suffix: macOS temp dirs resolve through /private symlinks.
	assert.Contains(t, res.Stdout, "\n")
	assert.NotEmpty(t, res.Stdout)
}

// TestCommandLine verifies rendering for logging, including quoting of
// arguments with whitespace so the line is shell-pasteable.
func TestCommandLine(t *testing.T) {
	inv := Invocation{
		Path: "/usr/bin/ffmpeg",
		Args: []string{"-i", "my video.mp4", "-vf", "fps=10"},
	}
	assert.Equal(t, `/usr/bin/ffmpeg -i "my video.mp4" -vf fps=10`, inv.CommandLine())
}

// TestCombinedOutput verifies joining of the captured streams.
func TestCombinedOutput(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{name: "both streams", res: Result{Stdout: "a", Stderr: "b"}, want: "a\nb"},
		{name: "stdout only", res: Result{Stdout: "a"}, want: "a"},
		{name: "stderr only", res: Result{Stderr: "b"}, want: "b"},
		{name: "empty", res: Result{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.res.CombinedOutput())
		})
	}
}
