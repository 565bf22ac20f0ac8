// layout.go defines the fixed on-disk layout of a gsprep job directory.
//
// Both tools agree on the same structure rooted at an output directory:
//
//	<root>/
//	  images/              extracted or user-supplied frames
//	  database.db          COLMAP feature/match database (SQLite)
//	  sparse/0/            sparse model (cameras.bin, images.bin, points3D.bin,
//	                       plus .txt copies after best-effort conversion)
//	  run.yaml             manifest describing the last run
//
// The layout is purely a naming convention. Nothing here touches the
// filesystem; callers derive paths and create directories themselves.
package model

import "path/filepath"

const (
	// ImagesDirName is the subdirectory holding input/output frames.
	ImagesDirName = "images"

	// DatabaseFileName is the COLMAP database file written into the
	// job root by the feature-extraction stage.
	DatabaseFileName = "database.db"

	// SparseDirName is the subdirectory COLMAP's mapper writes models into.
	SparseDirName = "sparse"

	// ModelDirName is the subdirectory of SparseDirName holding the first
	// (and for gsprep's purposes, only) reconstructed model.
	ModelDirName = "0"

	// ManifestFileName is the YAML run manifest written into the job root.
	ManifestFileName = "run.yaml"

	// FramePattern is the ffmpeg output filename pattern: a 5-digit
	// zero-padded sequence starting at frame_00001.png.
	FramePattern = "frame_%05d.png"

	// FrameGlob matches the frame files produced by FramePattern.
	// Used both by the overwrite guard and the post-extraction check.
	FrameGlob = "frame_*.png"
)

// JobLayout derives the fixed filesystem layout from a job root directory.
// It is a pure value type; construct it with NewJobLayout.
type JobLayout struct {
	// Root is the absolute path to the job's output root.
	Root string
}

// NewJobLayout creates a JobLayout rooted at the given directory.
func NewJobLayout(root string) JobLayout {
	return JobLayout{Root: root}
}

// ImagesDir returns the path of the frames directory.
func (l JobLayout) ImagesDir() string {
	return filepath.Join(l.Root, ImagesDirName)
}

// DatabasePath returns the path of the COLMAP database file.
func (l JobLayout) DatabasePath() string {
	return filepath.Join(l.Root, DatabaseFileName)
}

// SparseDir returns the path of the sparse model parent directory.
func (l JobLayout) SparseDir() string {
	return filepath.Join(l.Root, SparseDirName)
}

// ModelDir returns the path of the reconstructed model directory,
// conventionally sparse/0.
func (l JobLayout) ModelDir() string {
	return filepath.Join(l.Root, SparseDirName, ModelDirName)
}

// ManifestPath returns the path of the run manifest file.
func (l JobLayout) ManifestPath() string {
	return filepath.Join(l.Root, ManifestFileName)
}
