package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewAssignsIdentity verifies that each manifest gets a fresh run id
// and a timestamp.
func TestNewAssignsIdentity(t *testing.T) {
	a := New(ToolFrames)
	b := New(ToolFrames)

	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID, "run ids must be unique per run")
	assert.False(t, a.CreatedAt.IsZero())
	assert.Equal(t, ToolFrames, a.Tool)
}

// TestWriteAndLoad verifies the manifest round-trips through run.yaml,
// including the per-stage records of a sparse run.
func TestWriteAndLoad(t *testing.T) {
	m := New(ToolSparse)
	m.ImagesDir = "/data/job/images"
	m.Matcher = "sequential"
	m.SingleCamera = true
	m.Threads = 4
	m.ModelDir = "/data/job/sparse/0"
	m.Stages = []StageRecord{
		{Name: "feature_extraction", Outcome: "succeeded", DurationSeconds: 12.5},
		{Name: "model_conversion", Outcome: "failed-ignored", ExitCode: 1, DurationSeconds: 0.3},
	}

	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, m.Write(path))

	// The file carries a comment header ahead of the YAML document.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, len(raw) > 0 && raw[0] == '#')

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, m.RunID, loaded.RunID)
	assert.Equal(t, ToolSparse, loaded.Tool)
	assert.True(t, loaded.SingleCamera)
	require.Len(t, loaded.Stages, 2)
	assert.Equal(t, "failed-ignored", loaded.Stages[1].Outcome)
	assert.Equal(t, 1, loaded.Stages[1].ExitCode)
}

// TestLoadMissingFile verifies the error path for an absent manifest.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "run.yaml"))
	assert.Error(t, err)
}
