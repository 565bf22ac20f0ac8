package ffmpeg

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/litegs/gsprep/internal/subproc"
)

// probeDuration reports the input video duration in seconds via ffprobe.
//
// The probe is purely informational (it feeds logging and the run
// manifest), so every failure path returns 0 instead of an error:
// ffprobe missing, probe failing, or unparsable output never affect
// the extraction outcome.
func (e *Extractor) probeDuration(ctx context.Context, video string) float64 {
	ffprobe, err := exec.LookPath("ffprobe")
	if err != nil {
		e.log.Debug("ffprobe not found, skipping duration probe")
		return 0
	}

	res, err := e.runner.Run(ctx, subproc.Invocation{
		Path: ffprobe,
		Args: []string{
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			video,
		},
	})
	if err != nil || !res.Success() {
		e.log.Debug("ffprobe failed", zap.Error(err), zap.Int("exit_code", res.ExitCode))
		return 0
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(res.Stdout), 64)
	if err != nil {
		e.log.Debug("unparsable ffprobe output", zap.String("output", res.Stdout))
		return 0
	}
	return duration
}
