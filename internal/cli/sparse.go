// sparse.go implements the "gsprep sparse" command: drive COLMAP over a
// folder of images to produce a sparse reconstruction at <out>/sparse/0.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/litegs/gsprep/internal/colmap"
	"github.com/litegs/gsprep/internal/config"
	"github.com/litegs/gsprep/internal/dockerrun"
	"github.com/litegs/gsprep/internal/manifest"
	"github.com/litegs/gsprep/internal/model"
	"github.com/litegs/gsprep/internal/subproc"
)

// sparseFlags holds the flag values for the sparse command.
type sparseFlags struct {
	images       string // --images: folder of input frames
	out          string // --out: job root
	matcher      string // --matcher: sequential | exhaustive
	singleCamera bool   // --single_camera: one camera for all frames
	threads      int    // --threads: mapper thread count
	docker       bool   // --docker: run COLMAP stages in a container
}

// NewSparseCommand creates the "sparse" cobra command.
func NewSparseCommand() *cobra.Command {
	flags := &sparseFlags{}

	cmd := &cobra.Command{
		Use:   "sparse --images <dir> --out <dir>",
		Short: "Run COLMAP to produce a sparse model at <out>/sparse/0",
		Long: `Run the COLMAP reconstruction pipeline over a folder of images.

Four stages execute in order: feature extraction, feature matching
(sequential or exhaustive), mapping, and a best-effort conversion of the
binary model to text format. The database is written to <out>/database.db
and the model to <out>/sparse/0.

COLMAP is resolved from a bundled tools/colmap directory first, then from
PATH. With --docker, stages run in the official COLMAP image instead.

Examples:
  gsprep sparse --images data/walkthrough/images --out data/walkthrough
  gsprep sparse --images photos --out recon --matcher exhaustive --threads 16
  gsprep sparse --images data/clip/images --out data/clip --single_camera --docker`,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runSparse(cmd.Context(), cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.images, "images", "", "Folder containing input frames (required)")
	cmd.Flags().StringVar(&flags.out, "out", "", "Output root directory (required)")
	cmd.Flags().StringVar(&flags.matcher, "matcher", "sequential", "Matching strategy: sequential or exhaustive")
	cmd.Flags().BoolVar(&flags.singleCamera, "single_camera", false, "Treat all frames as one camera (video input)")
	cmd.Flags().IntVar(&flags.threads, "threads", 8, "Mapper thread count")
	cmd.Flags().BoolVar(&flags.docker, "docker", false, "Run COLMAP stages in a container")
	_ = cmd.MarkFlagRequired("images")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

// runSparse is the orchestration function for the sparse command.
func runSparse(ctx context.Context, cmd *cobra.Command, flags *sparseFlags) error {
	log := Logger()

	matcher, err := model.ParseMatcher(flags.matcher)
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "invalid --matcher", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "failed to get current directory", err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "failed to load configuration", err)
	}

	if !cmd.Flags().Changed("threads") {
		flags.threads = cfg.Threads
	}
	if flags.threads <= 0 {
		return model.NewCLIError(model.ExitFailure, fmt.Sprintf("invalid --threads %d: must be positive", flags.threads))
	}

	executor, cleanup, err := buildExecutor(ctx, cfg, flags, log)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline := colmap.NewPipeline(executor, log)
	res, runErr := pipeline.Run(ctx, colmap.Options{
		ImagesDir:    flags.images,
		OutputRoot:   flags.out,
		Matcher:      matcher,
		SingleCamera: flags.singleCamera,
		Threads:      flags.threads,
	})

	// The manifest is written even for failed runs so the partial
	// artifacts left on disk are accounted for.
	if res != nil && len(res.Stages) > 0 {
		writeSparseManifest(flags, matcher, res, log)
	}
	if runErr != nil {
		return runErr
	}

	printSparseResult(res)
	return nil
}

// buildExecutor selects the COLMAP execution backend. The returned cleanup
// closes any resources the backend holds (the Docker client); for the
// local backend it is a no-op.
//
// Tool resolution happens here, before the pipeline touches the
// filesystem, so a missing COLMAP never leaves a half-created job behind.
func buildExecutor(ctx context.Context, cfg *config.Config, flags *sparseFlags, log *zap.Logger) (colmap.Executor, func(), error) {
	noop := func() {}

	if !flags.docker {
		toolsDir := cfg.ColmapDir
		if toolsDir == "" {
			toolsDir = colmap.DefaultToolsDir()
		}
		exe, err := colmap.Resolve(cfg.ColmapPath, toolsDir)
		if err != nil {
			return nil, noop, err
		}
		log.Debug("resolved colmap", zap.String("path", exe))
		return colmap.NewLocal(exe, subproc.NewExec()), noop, nil
	}

	cli, err := dockerrun.NewClient()
	if err != nil {
		return nil, noop, err
	}
	if err := cli.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, noop, err
	}

	// Mount the images folder and the job root at identical container
	// paths so stage argument lists carry over unchanged.
	images, err := filepath.Abs(flags.images)
	if err != nil {
		_ = cli.Close()
		return nil, noop, model.WrapCLIError(model.ExitFailure, "failed to resolve images path", err)
	}
	out, err := filepath.Abs(flags.out)
	if err != nil {
		_ = cli.Close()
		return nil, noop, model.WrapCLIError(model.ExitFailure, "failed to resolve output path", err)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		_ = cli.Close()
		return nil, noop, model.WrapCLIError(model.ExitFailure,
			fmt.Sprintf("failed to create output directory: %s", out), err)
	}

	log.Debug("using docker backend", zap.String("image", cfg.ColmapImage))
	executor := dockerrun.NewStageExecutor(cli, cfg.ColmapImage, []string{images, out}, log)
	return executor, func() { _ = cli.Close() }, nil
}

// writeSparseManifest records the run in <out>/run.yaml. Best-effort.
func writeSparseManifest(flags *sparseFlags, matcher model.Matcher, res *colmap.RunResult, log *zap.Logger) {
	m := manifest.New(manifest.ToolSparse)
	m.ImagesDir = flags.images
	m.Matcher = matcher.String()
	m.SingleCamera = flags.singleCamera
	m.Threads = flags.threads
	m.DatabasePath = res.DatabasePath
	m.ModelDir = res.ModelDir
	for _, s := range res.Stages {
		m.Stages = append(m.Stages, manifest.StageRecord{
			Name:            s.Name,
			Outcome:         s.Outcome.String(),
			ExitCode:        s.ExitCode,
			DurationSeconds: s.Duration.Seconds(),
		})
	}

	path := model.NewJobLayout(flags.out).ManifestPath()
	if err := m.Write(path); err != nil {
		log.Warn("could not write run manifest", zap.Error(err))
	}
}

// printSparseResult outputs the sparse result in text or JSON format.
func printSparseResult(res *colmap.RunResult) {
	if IsJSONOutput() {
		type stageJSON struct {
			Name     string `json:"name"`
			Outcome  string `json:"outcome"`
			ExitCode int    `json:"exitCode"`
		}
		out := struct {
			ModelDir     string      `json:"modelDir"`
			DatabasePath string      `json:"databasePath"`
			Stages       []stageJSON `json:"stages"`
		}{ModelDir: res.ModelDir, DatabasePath: res.DatabasePath}
		for _, s := range res.Stages {
			out.Stages = append(out.Stages, stageJSON{s.Name, s.Outcome.String(), s.ExitCode})
		}

		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Done. Sparse model at: %s\n", res.ModelDir)
	for _, s := range res.Stages {
		marker := "ok"
		if s.Outcome.Failed() {
			marker = s.Outcome.String()
		}
		fmt.Printf("  %-20s %-14s %.1fs\n", s.Name, marker, s.Duration.Seconds())
	}
}
