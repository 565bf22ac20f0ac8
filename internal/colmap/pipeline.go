package colmap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/litegs/gsprep/internal/model"
)

// Stage names, used in logs, stage results, and the run manifest.
const (
	StageFeatureExtraction = "feature_extraction"
	StageFeatureMatching   = "feature_matching"
	StageMapping           = "mapping"
	StageModelConversion   = "model_conversion"
)

// Options configures a reconstruction run.
type Options struct {
	// ImagesDir is the folder of input frames.
	ImagesDir string

	// OutputRoot is the job root; database.db and sparse/0 are written here.
	OutputRoot string

	// Matcher selects the feature-matching strategy.
	Matcher model.Matcher

	// SingleCamera tells COLMAP's image reader to treat all frames as
	// taken by one camera, which is the right model for video input.
	SingleCamera bool

	// Threads is the mapper thread count, passed through to COLMAP.
	// Mapping is the computationally dominant stage and the only one
	// with a parallelism knob.
	Threads int
}

// StageResult records how one pipeline stage ended.
type StageResult struct {
	// Name is one of the Stage* constants.
	Name string

	// Outcome is the tri-state stage outcome.
	Outcome model.StageOutcome

	// ExitCode is the external tool's exit code for this stage.
	ExitCode int

	// Duration is the wall-clock time the stage invocation took.
	Duration time.Duration
}

// RunResult describes a completed reconstruction run.
type RunResult struct {
	// ModelDir is the sparse/0 directory holding the binary model.
	ModelDir string

	// DatabasePath is the COLMAP database file written by the run.
	DatabasePath string

	// Stages lists per-stage results in execution order. A fatal failure
	// ends the list early; an ignored conversion failure is included.
	Stages []StageResult
}

// Pipeline runs the fixed COLMAP stage sequence against an Executor.
type Pipeline struct {
	exec Executor
	log  *zap.Logger

	// lastOutput holds the captured stdout/stderr of the most recent
	// stage invocation, surfaced in the error report when a fatal stage
	// fails.
	lastOutput string
}

// NewPipeline creates a Pipeline. The executor decides where COLMAP runs
// (local binary or container); the pipeline only decides what to run and
// which failures abort.
func NewPipeline(exec Executor, log *zap.Logger) *Pipeline {
	return &Pipeline{exec: exec, log: log}
}

// Run validates inputs and executes the pipeline:
//
//	feature extraction → feature matching → mapping → model conversion
//
// The first three stages are fatal on failure and abort the run with the
// partial artifacts left on disk (re-running overwrites them). Conversion
// runs only if mapping left a sparse/0 directory behind, and its failure
// is downgraded to a warning because the binary model is already usable.
//
// Ordering between stages is enforced purely by sequential blocking
// execution; each stage reads what the previous one wrote to disk.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*RunResult, error) {
	images, err := filepath.Abs(opts.ImagesDir)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitFailure, "failed to resolve images path", err)
	}
	if info, err := os.Stat(images); err != nil || !info.IsDir() {
		return nil, model.NewCLIError(model.ExitFailure,
			fmt.Sprintf("images folder not found: %s", images))
	}

	root, err := filepath.Abs(opts.OutputRoot)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitFailure, "failed to resolve output path", err)
	}

	layout := model.NewJobLayout(root)
	if err := os.MkdirAll(layout.SparseDir(), 0o755); err != nil {
		return nil, model.WrapCLIError(model.ExitFailure,
			fmt.Sprintf("failed to create output directory: %s", layout.SparseDir()), err)
	}

	result := &RunResult{
		ModelDir:     layout.ModelDir(),
		DatabasePath: layout.DatabasePath(),
	}

	featArgs := []string{
		"feature_extractor",
		"--database_path", layout.DatabasePath(),
		"--image_path", images,
	}
	if opts.SingleCamera {
		featArgs = append(featArgs, "--ImageReader.single_camera", "1")
	}
	if err := p.runFatal(ctx, result, StageFeatureExtraction, featArgs); err != nil {
		return result, err
	}

	matchArgs := []string{
		opts.Matcher.Subcommand(),
		"--database_path", layout.DatabasePath(),
	}
	if err := p.runFatal(ctx, result, StageFeatureMatching, matchArgs); err != nil {
		return result, err
	}

	mapArgs := []string{
		"mapper",
		"--database_path", layout.DatabasePath(),
		"--image_path", images,
		"--output_path", layout.SparseDir(),
		"--Mapper.num_threads", strconv.Itoa(opts.Threads),
	}
	if err := p.runFatal(ctx, result, StageMapping, mapArgs); err != nil {
		return result, err
	}

	p.convertModel(ctx, result)
	return result, nil
}

// convertModel emits a text-format copy of the sparse model alongside the
// binary one. Best-effort: the stage is skipped when mapping produced no
// sparse/0 directory, and its failure never fails the run.
func (p *Pipeline) convertModel(ctx context.Context, result *RunResult) {
	if _, err := os.Stat(result.ModelDir); err != nil {
		p.log.Warn("no sparse/0 model directory after mapping, skipping conversion",
			zap.String("model_dir", result.ModelDir))
		return
	}

	args := []string{
		"model_converter",
		"--input_path", result.ModelDir,
		"--output_path", result.ModelDir,
		"--output_type", "TXT",
	}

	stage, err := p.runStage(ctx, StageModelConversion, args)
	if err != nil {
		p.log.Warn("model_converter could not run (bin model is still usable)", zap.Error(err))
		return
	}
	if stage.Outcome == model.StageSucceeded {
		result.Stages = append(result.Stages, stage)
		return
	}

	stage.Outcome = model.StageFailedIgnored
	result.Stages = append(result.Stages, stage)
	p.log.Warn("model_converter failed (bin model is still usable)",
		zap.Int("exit_code", stage.ExitCode))
}

// runFatal executes a stage whose failure aborts the pipeline. The stage
// result is recorded either way; on failure the returned CLIError carries
// the tool's captured output.
func (p *Pipeline) runFatal(ctx context.Context, result *RunResult, name string, args []string) error {
	stage, err := p.runStage(ctx, name, args)
	if err != nil {
		return model.WrapCLIError(model.ExitFailure,
			fmt.Sprintf("failed to run colmap %s", args[0]), err)
	}
	result.Stages = append(result.Stages, stage)

	if stage.Outcome != model.StageSucceeded {
		stage.Outcome = model.StageFailedFatal
		result.Stages[len(result.Stages)-1] = stage
		return &model.CLIError{
			Code:    model.ExitFailure,
			Message: fmt.Sprintf("colmap %s failed with exit code %d", args[0], stage.ExitCode),
			Output:  p.lastOutput,
		}
	}
	return nil
}

// runStage logs and executes a single stage invocation, returning its
// timing and exit code. The external tool's captured output is stashed on
// the pipeline for the caller's error report.
func (p *Pipeline) runStage(ctx context.Context, name string, args []string) (StageResult, error) {
	p.log.Info("running colmap stage",
		zap.String("stage", name),
		zap.String("cmd", p.exec.Describe(args)))

	start := time.Now()
	res, err := p.exec.RunStage(ctx, args)
	if err != nil {
		return StageResult{Name: name}, err
	}
	p.lastOutput = res.CombinedOutput()

	stage := StageResult{
		Name:     name,
		ExitCode: res.ExitCode,
		Duration: time.Since(start),
	}
	if res.Success() {
		stage.Outcome = model.StageSucceeded
	} else {
		stage.Outcome = model.StageFailedFatal
	}
	return stage, nil
}
