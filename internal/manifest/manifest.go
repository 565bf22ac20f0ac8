// Package manifest records what a gsprep run produced.
//
// Both commands write a run.yaml into the job root describing the inputs,
// the per-stage outcomes, and the artifacts. The manifest is informational:
// nothing in gsprep reads it to make decisions, and writing it is
// best-effort; a manifest failure never changes a run's exit code.
package manifest

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Tool identifies which command produced a manifest.
const (
	ToolFrames = "frames"
	ToolSparse = "sparse"
)

// StageRecord describes one external-tool invocation within a run.
type StageRecord struct {
	// Name is the stage identifier (e.g., "mapping").
	Name string `yaml:"name"`

	// Outcome is the stage's tri-state outcome string.
	Outcome string `yaml:"outcome"`

	// ExitCode is the external tool's exit code.
	ExitCode int `yaml:"exitCode"`

	// DurationSeconds is the stage's wall-clock duration.
	DurationSeconds float64 `yaml:"durationSeconds"`
}

// Manifest is the YAML document written to <root>/run.yaml.
// Fields irrelevant to the producing command are omitted.
type Manifest struct {
	// RunID uniquely identifies this run.
	RunID string `yaml:"runId"`

	// Tool is the command that produced the manifest (frames / sparse).
	Tool string `yaml:"tool"`

	// CreatedAt is the UTC completion time of the run.
	CreatedAt time.Time `yaml:"createdAt"`

	// Video is the input video path (frames only).
	Video string `yaml:"video,omitempty"`

	// FPS is the extraction frame rate (frames only).
	FPS int `yaml:"fps,omitempty"`

	// FrameCount is the number of frames produced (frames only).
	FrameCount int `yaml:"frameCount,omitempty"`

	// DurationSeconds is the input video duration (frames only, 0 when
	// the ffprobe probe was unavailable).
	DurationSeconds float64 `yaml:"videoDurationSeconds,omitempty"`

	// ImagesDir is the frames directory (both commands).
	ImagesDir string `yaml:"imagesDir,omitempty"`

	// Matcher is the feature-matching strategy (sparse only).
	Matcher string `yaml:"matcher,omitempty"`

	// SingleCamera records the single-camera flag (sparse only).
	SingleCamera bool `yaml:"singleCamera,omitempty"`

	// Threads is the mapper thread count (sparse only).
	Threads int `yaml:"threads,omitempty"`

	// Stages lists the external-tool invocations in execution order.
	Stages []StageRecord `yaml:"stages,omitempty"`

	// DatabasePath is the COLMAP database file (sparse only).
	DatabasePath string `yaml:"databasePath,omitempty"`

	// ModelDir is the sparse model directory (sparse only).
	ModelDir string `yaml:"modelDir,omitempty"`
}

// New creates a manifest for the given tool with a fresh run id and
// timestamp.
func New(tool string) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		Tool:      tool,
		CreatedAt: time.Now().UTC(),
	}
}

// Write serializes the manifest to path. The file is replaced atomically
// enough for our purposes: a rerun overwrites it wholesale.
func (m *Manifest) Write(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to serialize run manifest: %w", err)
	}

	header := "# Generated by gsprep. Describes the most recent run of this job directory.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write run manifest: %w", err)
	}
	return nil
}

// Load reads a manifest from path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse run manifest %s: %w", path, err)
	}
	return &m, nil
}
