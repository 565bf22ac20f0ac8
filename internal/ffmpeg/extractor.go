package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/litegs/gsprep/internal/model"
	"github.com/litegs/gsprep/internal/subproc"
)

// Resolve locates the ffmpeg executable.
//
// When explicit is non-empty (from GSPREP_FFMPEG or gsprep.jsonc) it is
// used as-is after an existence check. Otherwise ffmpeg is looked up on
// PATH. Resolution happens before any filesystem mutation so a missing
// tool never leaves a half-created job directory behind.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", model.WrapCLIError(model.ExitFailure,
				fmt.Sprintf("configured ffmpeg not found: %s", explicit), err)
		}
		return explicit, nil
	}

	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", model.WrapCLIError(model.ExitFailure,
			"ffmpeg not found; install it and make sure it is on PATH", err)
	}
	return path, nil
}

// Options configures a frame-extraction run.
type Options struct {
	// VideoPath is the input video file.
	VideoPath string

	// OutputRoot is the job root; frames are written to <OutputRoot>/images.
	OutputRoot string

	// FPS is the extraction frame rate.
	FPS int

	// Overwrite allows replacing frames from a previous run. Without it,
	// pre-existing frame files abort the extraction before ffmpeg runs.
	Overwrite bool
}

// Result describes a successful extraction.
type Result struct {
	// FrameCount is the number of frame files present after extraction.
	FrameCount int

	// ImagesDir is the directory the frames were written to.
	ImagesDir string

	// Duration is the input video duration in seconds as reported by
	// ffprobe, or 0 when the probe was unavailable or failed.
	Duration float64
}

// Extractor runs the single-invocation frame-extraction workflow.
type Extractor struct {
	exe    string
	runner subproc.Runner
	log    *zap.Logger
}

// NewExtractor creates an Extractor around a resolved ffmpeg path.
// The runner is injected so tests can substitute a fake for the real binary.
func NewExtractor(exe string, runner subproc.Runner, log *zap.Logger) *Extractor {
	return &Extractor{exe: exe, runner: runner, log: log}
}

// Extract validates inputs, runs ffmpeg once, and verifies output frames.
//
// Workflow:
//  1. The input video must exist.
//  2. <out>/images is created (idempotently, with parents).
//  3. Overwrite guard: without opts.Overwrite, any existing frame_*.png
//     aborts the run untouched.
//  4. One ffmpeg invocation samples the video at opts.FPS into
//     frame_%05d.png files (RGB24 pixel format, banner suppressed).
//  5. Post-condition: at least one frame file must exist even when ffmpeg
//     exited 0; otherwise the run fails (silent-no-output).
//
// On ffmpeg failure the returned CLIError carries ffmpeg's own exit code
// and its captured output. No cleanup of partial output is attempted.
func (e *Extractor) Extract(ctx context.Context, opts Options) (*Result, error) {
	video, err := filepath.Abs(opts.VideoPath)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitFailure, "failed to resolve video path", err)
	}
	if _, err := os.Stat(video); err != nil {
		return nil, model.WrapCLIError(model.ExitFailure,
			fmt.Sprintf("input video not found: %s", video), err)
	}

	root, err := filepath.Abs(opts.OutputRoot)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitFailure, "failed to resolve output path", err)
	}

	layout := model.NewJobLayout(root)
	imagesDir := layout.ImagesDir()
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, model.WrapCLIError(model.ExitFailure,
			fmt.Sprintf("failed to create output directory: %s", imagesDir), err)
	}

	if !opts.Overwrite {
		existing, err := listFrames(imagesDir)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitFailure, "failed to scan output directory", err)
		}
		if len(existing) > 0 {
			return nil, model.NewCLIError(model.ExitFailure, fmt.Sprintf(
				"output directory already contains %d frame file(s); pass --overwrite to replace them: %s",
				len(existing), imagesDir))
		}
	}

	inv := e.buildInvocation(video, imagesDir, opts)
	e.log.Info("running ffmpeg", zap.String("cmd", inv.CommandLine()))

	res, err := e.runner.Run(ctx, inv)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitFailure, "failed to run ffmpeg", err)
	}
	if !res.Success() {
		return nil, model.ToolError(res.ExitCode, "ffmpeg frame extraction failed", res.CombinedOutput())
	}

	frames, err := listFrames(imagesDir)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitFailure, "failed to scan output directory", err)
	}
	if len(frames) == 0 {
		// ffmpeg exited 0 but wrote nothing. Known to happen with codec
		// or filter misconfigurations that ffmpeg itself does not flag.
		return nil, model.NewCLIError(model.ExitFailure,
			"no frames were produced; check the input video and frame rate")
	}

	result := &Result{FrameCount: len(frames), ImagesDir: imagesDir}
	result.Duration = e.probeDuration(ctx, video)

	e.log.Info("frames extracted",
		zap.Int("count", result.FrameCount),
		zap.String("dir", imagesDir),
		zap.Float64("video_duration", result.Duration))

	return result, nil
}

// buildInvocation assembles the single ffmpeg command.
//
// The overwrite decision is passed to ffmpeg explicitly (-y / -n) so the
// tool's behavior matches the guard above even if the directory changed
// between the guard check and execution.
func (e *Extractor) buildInvocation(video, imagesDir string, opts Options) subproc.Invocation {
	overwrite := "-n"
	if opts.Overwrite {
		overwrite = "-y"
	}

	pattern := filepath.Join(imagesDir, model.FramePattern)
	return subproc.Invocation{
		Path: e.exe,
		Args: []string{
			overwrite,
			"-i", video,
			"-vf", fmt.Sprintf("fps=%d", opts.FPS),
			"-pix_fmt", "rgb24",
			pattern,
			"-hide_banner",
			"-loglevel", "error",
		},
	}
}

// listFrames returns the frame files in dir matching the output pattern,
// sorted lexically (which matches numeric order for zero-padded names).
func listFrames(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, model.FrameGlob))
}
