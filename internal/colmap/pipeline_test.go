package colmap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/litegs/gsprep/internal/model"
	"github.com/litegs/gsprep/internal/subproc"
)

// fakeExecutor records stage invocations and delegates behavior to a
// per-subcommand function, so pipeline logic can be tested without COLMAP.
type fakeExecutor struct {
	calls [][]string
	run   func(args []string) (subproc.Result, error)
}

func (f *fakeExecutor) RunStage(_ context.Context, args []string) (subproc.Result, error) {
	f.calls = append(f.calls, args)
	if f.run != nil {
		return f.run(args)
	}
	return subproc.Result{}, nil
}

func (f *fakeExecutor) Describe(args []string) string {
	return "colmap " + strings.Join(args, " ")
}

// subcommands lists the first argument of every recorded invocation.
func (f *fakeExecutor) subcommands() []string {
	subs := make([]string, len(f.calls))
	for i, c := range f.calls {
		subs[i] = c[0]
	}
	return subs
}

// newImagesDir creates a non-empty images directory for pipeline tests.
func newImagesDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "images")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame_00001.png"), []byte("png"), 0o644))
	return dir
}

// TestRunMissingImagesDir verifies the invalid-input-path failure before
// any stage executes.
func TestRunMissingImagesDir(t *testing.T) {
	exec := &fakeExecutor{}
	p := NewPipeline(exec, zap.NewNop())

	_, err := p.Run(context.Background(), Options{
		ImagesDir:  filepath.Join(t.TempDir(), "missing"),
		OutputRoot: t.TempDir(),
		Matcher:    model.MatcherSequential,
		Threads:    8,
	})

	require.Error(t, err)
	assert.Empty(t, exec.calls, "no stage should run when the images folder is missing")
}

// TestRunStageSequence verifies the fixed stage order and the argument
// lists passed to COLMAP on the happy path, including the best-effort
// conversion when mapping left a sparse/0 directory behind.
func TestRunStageSequence(t *testing.T) {
	images := newImagesDir(t)
	out := t.TempDir()
	layout := model.NewJobLayout(out)

	exec := &fakeExecutor{}
	exec.run = func(args []string) (subproc.Result, error) {
		if args[0] == "mapper" {
			// The mapper writes the model directory; conversion keys off it.
			require.NoError(t, os.MkdirAll(layout.ModelDir(), 0o755))
		}
		return subproc.Result{}, nil
	}

	p := NewPipeline(exec, zap.NewNop())
	res, err := p.Run(context.Background(), Options{
		ImagesDir:    images,
		OutputRoot:   out,
		Matcher:      model.MatcherSequential,
		SingleCamera: true,
		Threads:      4,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"feature_extractor",
		"sequential_matcher",
		"mapper",
		"model_converter",
	}, exec.subcommands())

	feat := exec.calls[0]
	assert.Contains(t, feat, "--database_path")
	assert.Contains(t, feat, layout.DatabasePath())
	assert.Contains(t, feat, "--ImageReader.single_camera")

	mapper := exec.calls[2]
	assert.Contains(t, mapper, "--output_path")
	assert.Contains(t, mapper, layout.SparseDir())
	assert.Contains(t, mapper, "--Mapper.num_threads")
	assert.Contains(t, mapper, "4")

	conv := exec.calls[3]
	assert.Contains(t, conv, "--output_type")
	assert.Contains(t, conv, "TXT")

	assert.Equal(t, layout.ModelDir(), res.ModelDir)
	require.Len(t, res.Stages, 4)
	for _, s := range res.Stages {
		assert.Equal(t, model.StageSucceeded, s.Outcome)
	}
}

// TestRunExhaustiveMatcher verifies the caller-selected matching strategy
// reaches COLMAP, and that single_camera is omitted when not requested.
func TestRunExhaustiveMatcher(t *testing.T) {
	exec := &fakeExecutor{}
	p := NewPipeline(exec, zap.NewNop())

	_, err := p.Run(context.Background(), Options{
		ImagesDir:  newImagesDir(t),
		OutputRoot: t.TempDir(),
		Matcher:    model.MatcherExhaustive,
		Threads:    8,
	})
	require.NoError(t, err)

	assert.Equal(t, "exhaustive_matcher", exec.calls[1][0])
	assert.NotContains(t, exec.calls[0], "--ImageReader.single_camera")
}

// TestRunFatalStageAborts verifies that a matching failure stops the
// pipeline: no mapper or conversion runs, and the error carries the
// tool's captured output.
func TestRunFatalStageAborts(t *testing.T) {
	exec := &fakeExecutor{}
	exec.run = func(args []string) (subproc.Result, error) {
		if args[0] == "sequential_matcher" {
			return subproc.Result{ExitCode: 1, Stderr: "no features in database"}, nil
		}
		return subproc.Result{}, nil
	}

	p := NewPipeline(exec, zap.NewNop())
	res, err := p.Run(context.Background(), Options{
		ImagesDir:  newImagesDir(t),
		OutputRoot: t.TempDir(),
		Matcher:    model.MatcherSequential,
		Threads:    8,
	})

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitFailure, cliErr.Code)
	assert.Contains(t, cliErr.Output, "no features in database")

	assert.Equal(t, []string{"feature_extractor", "sequential_matcher"}, exec.subcommands())
	require.Len(t, res.Stages, 2)
	assert.Equal(t, model.StageFailedFatal, res.Stages[1].Outcome)
}

// TestRunMappingFailureSkipsConversion verifies that conversion is never
// attempted after a failed mapping stage.
func TestRunMappingFailureSkipsConversion(t *testing.T) {
	exec := &fakeExecutor{}
	exec.run = func(args []string) (subproc.Result, error) {
		if args[0] == "mapper" {
			return subproc.Result{ExitCode: 1}, nil
		}
		return subproc.Result{}, nil
	}

	p := NewPipeline(exec, zap.NewNop())
	_, err := p.Run(context.Background(), Options{
		ImagesDir:  newImagesDir(t),
		OutputRoot: t.TempDir(),
		Matcher:    model.MatcherSequential,
		Threads:    8,
	})

	require.Error(t, err)
	assert.NotContains(t, exec.subcommands(), "model_converter")
}

// TestRunConversionFailureIsIgnored verifies the best-effort final stage:
// a model_converter failure is recorded as ignored and the run still
// succeeds, since the binary model remains usable.
func TestRunConversionFailureIsIgnored(t *testing.T) {
	out := t.TempDir()
	layout := model.NewJobLayout(out)

	exec := &fakeExecutor{}
	exec.run = func(args []string) (subproc.Result, error) {
		switch args[0] {
		case "mapper":
			require.NoError(t, os.MkdirAll(layout.ModelDir(), 0o755))
			return subproc.Result{}, nil
		case "model_converter":
			return subproc.Result{ExitCode: 1, Stderr: "conversion exploded"}, nil
		default:
			return subproc.Result{}, nil
		}
	}

	p := NewPipeline(exec, zap.NewNop())
	res, err := p.Run(context.Background(), Options{
		ImagesDir:  newImagesDir(t),
		OutputRoot: out,
		Matcher:    model.MatcherSequential,
		Threads:    8,
	})
	require.NoError(t, err, "conversion failure must not fail the run")

	require.Len(t, res.Stages, 4)
	last := res.Stages[3]
	assert.Equal(t, StageModelConversion, last.Name)
	assert.Equal(t, model.StageFailedIgnored, last.Outcome)
	assert.Equal(t, 1, last.ExitCode)
}

// TestRunConversionSkippedWithoutModelDir verifies that a mapping run
// that produced no sparse/0 (e.g., nothing registered) skips conversion
// without failing.
func TestRunConversionSkippedWithoutModelDir(t *testing.T) {
	exec := &fakeExecutor{} // all stages succeed, nothing writes sparse/0

	p := NewPipeline(exec, zap.NewNop())
	res, err := p.Run(context.Background(), Options{
		ImagesDir:  newImagesDir(t),
		OutputRoot: t.TempDir(),
		Matcher:    model.MatcherSequential,
		Threads:    8,
	})
	require.NoError(t, err)

	assert.NotContains(t, exec.subcommands(), "model_converter")
	assert.Len(t, res.Stages, 3)
}
