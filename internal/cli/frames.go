// frames.go implements the "gsprep frames" command: extract frames from a
// video into <out>/images using ffmpeg.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/litegs/gsprep/internal/config"
	"github.com/litegs/gsprep/internal/ffmpeg"
	"github.com/litegs/gsprep/internal/manifest"
	"github.com/litegs/gsprep/internal/model"
	"github.com/litegs/gsprep/internal/subproc"
)

// framesFlags holds the flag values for the frames command.
type framesFlags struct {
	video     string // --video: input video path
	out       string // --out: job root (images/ is created inside)
	fps       int    // --fps: extraction frame rate
	overwrite bool   // --overwrite: replace existing frames
}

// NewFramesCommand creates the "frames" cobra command.
func NewFramesCommand() *cobra.Command {
	flags := &framesFlags{}

	cmd := &cobra.Command{
		Use:   "frames --video <file> --out <dir>",
		Short: "Extract frames from a video with ffmpeg",
		Long: `Extract frames from a video into <out>/images/.

Frames are written as frame_00001.png, frame_00002.png, ... (RGB24 pixel
format) at the requested frame rate. If the output directory already
contains frames, the command aborts unless --overwrite is given.

Examples:
  gsprep frames --video walkthrough.mp4 --out data/walkthrough
  gsprep frames --video clip.mov --out data/clip --fps 4 --overwrite`,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runFrames(cmd.Context(), cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.video, "video", "", "Input video path (required)")
	cmd.Flags().StringVar(&flags.out, "out", "", "Output root directory (required)")
	cmd.Flags().IntVar(&flags.fps, "fps", 10, "Extraction frame rate")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "Overwrite existing frames")
	_ = cmd.MarkFlagRequired("video")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

// runFrames is the orchestration function for the frames command:
// load config, resolve ffmpeg, run the extraction, write the manifest,
// print the result.
func runFrames(ctx context.Context, cmd *cobra.Command, flags *framesFlags) error {
	log := Logger()

	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "failed to get current directory", err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "failed to load configuration", err)
	}

	// The flag default is the built-in 10; a configured default applies
	// only when the user did not pass --fps explicitly.
	if !cmd.Flags().Changed("fps") {
		flags.fps = cfg.FPS
	}
	if flags.fps <= 0 {
		return model.NewCLIError(model.ExitFailure, fmt.Sprintf("invalid --fps %d: must be positive", flags.fps))
	}

	exe, err := ffmpeg.Resolve(cfg.FFmpegPath)
	if err != nil {
		return err
	}
	log.Debug("resolved ffmpeg", zap.String("path", exe))

	extractor := ffmpeg.NewExtractor(exe, subproc.NewExec(), log)
	res, err := extractor.Extract(ctx, ffmpeg.Options{
		VideoPath:  flags.video,
		OutputRoot: flags.out,
		FPS:        flags.fps,
		Overwrite:  flags.overwrite,
	})
	if err != nil {
		return err
	}

	writeFramesManifest(flags, res, log)
	printFramesResult(res)
	return nil
}

// writeFramesManifest records the run in <out>/run.yaml. Best-effort:
// failures are logged and never affect the command's outcome.
func writeFramesManifest(flags *framesFlags, res *ffmpeg.Result, log *zap.Logger) {
	m := manifest.New(manifest.ToolFrames)
	m.Video = flags.video
	m.FPS = flags.fps
	m.FrameCount = res.FrameCount
	m.DurationSeconds = res.Duration
	m.ImagesDir = res.ImagesDir

	path := model.NewJobLayout(flags.out).ManifestPath()
	if err := m.Write(path); err != nil {
		log.Warn("could not write run manifest", zap.Error(err))
	}
}

// printFramesResult outputs the frames result in text or JSON format.
func printFramesResult(res *ffmpeg.Result) {
	if IsJSONOutput() {
		out := struct {
			FrameCount int     `json:"frameCount"`
			ImagesDir  string  `json:"imagesDir"`
			Duration   float64 `json:"videoDurationSeconds,omitempty"`
		}{res.FrameCount, res.ImagesDir, res.Duration}

		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Extracted %d frame(s)\n", res.FrameCount)
	fmt.Printf("  Output: %s\n", res.ImagesDir)
	if res.Duration > 0 {
		fmt.Printf("  Video:  %.1fs\n", res.Duration)
	}
}
