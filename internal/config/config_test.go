package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadDefaults verifies the built-in defaults with no project file
// and a clean environment.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.FPS)
	assert.Equal(t, 8, cfg.Threads)
	assert.Equal(t, "colmap/colmap:latest", cfg.ColmapImage)
	assert.Empty(t, cfg.FFmpegPath)
	assert.Empty(t, cfg.ColmapPath)
}

// TestLoadEnvironment verifies that GSPREP_* variables override defaults.
func TestLoadEnvironment(t *testing.T) {
	t.Setenv("GSPREP_FPS", "4")
	t.Setenv("GSPREP_FFMPEG", "/opt/ffmpeg/bin/ffmpeg")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.FPS)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, 8, cfg.Threads, "unset variables keep their defaults")
}

// TestLoadProjectFile verifies that gsprep.jsonc values beat defaults,
// and that JSONC comments are accepted.
func TestLoadProjectFile(t *testing.T) {
	dir := t.TempDir()
	file := `{
		// local COLMAP build
		"colmap": "/opt/colmap/bin/colmap",
		"threads": 16,
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(file), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/opt/colmap/bin/colmap", cfg.ColmapPath)
	assert.Equal(t, 16, cfg.Threads)
	assert.Equal(t, 10, cfg.FPS, "fields absent from the file keep defaults")
}

// TestLoadEnvironmentBeatsFile verifies the precedence order: the
// environment wins over the project file.
func TestLoadEnvironmentBeatsFile(t *testing.T) {
	dir := t.TempDir()
	file := `{"threads": 16, "fps": 2}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(file), 0o644))

	t.Setenv("GSPREP_THREADS", "32")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Threads, "environment beats the file")
	assert.Equal(t, 2, cfg.FPS, "file beats the default where no env var is set")
}

// TestLoadMalformedFile verifies that an unparsable project file is an
// error rather than being silently ignored.
func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{"fps": `), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

// TestLoadMissingFileIsFine verifies a missing project file is not an error.
func TestLoadMissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}
