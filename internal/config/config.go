// Package config resolves gsprep settings from the environment and an
// optional per-project gsprep.jsonc file.
//
// Precedence, highest first:
//  1. Environment variables (GSPREP_*)
//  2. gsprep.jsonc in the working directory
//  3. Built-in defaults
//
// The project file uses JSONC (JSON with comments) because it sits next to
// job data and benefits from inline annotation; comments are stripped with
// github.com/tidwall/jsonc before parsing with encoding/json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/tidwall/jsonc"
)

// FileName is the optional per-project configuration file.
const FileName = "gsprep.jsonc"

// Config holds all tunable settings. Zero-values never reach callers:
// Load fills every field from defaults, the project file, or the environment.
type Config struct {
	// FFmpegPath is an explicit ffmpeg executable path. Empty means
	// resolve ffmpeg from PATH.
	FFmpegPath string `env:"GSPREP_FFMPEG" json:"ffmpeg"`

	// ColmapPath is an explicit COLMAP executable path. Empty means
	// resolve via the bundled-tools directory and then PATH.
	ColmapPath string `env:"GSPREP_COLMAP" json:"colmap"`

	// ColmapDir overrides the bundled COLMAP tools directory
	// (default: <install root>/tools/colmap).
	ColmapDir string `env:"GSPREP_COLMAP_DIR" json:"colmapDir"`

	// FPS is the default frame-extraction rate.
	FPS int `env:"GSPREP_FPS" envDefault:"10" json:"fps"`

	// Threads is the default mapper thread count.
	Threads int `env:"GSPREP_THREADS" envDefault:"8" json:"threads"`

	// ColmapImage is the container image used when COLMAP stages run
	// through the Docker backend.
	ColmapImage string `env:"GSPREP_COLMAP_IMAGE" envDefault:"colmap/colmap:latest" json:"colmapImage"`
}

// fileConfig mirrors Config for the subset of fields the project file may
// set. A separate struct with pointer fields distinguishes "absent" from
// "explicitly zero" during the merge.
type fileConfig struct {
	FFmpegPath  *string `json:"ffmpeg"`
	ColmapPath  *string `json:"colmap"`
	ColmapDir   *string `json:"colmapDir"`
	FPS         *int    `json:"fps"`
	Threads     *int    `json:"threads"`
	ColmapImage *string `json:"colmapImage"`
}

// Load builds the effective configuration for a run.
//
// dir is the directory searched for gsprep.jsonc, normally the process
// working directory. A missing project file is not an error; a malformed
// one is, because silently ignoring it would mask typos.
func Load(dir string) (*Config, error) {
	// Environment variables and built-in defaults first.
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	fc, err := loadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	if fc == nil {
		return cfg, nil
	}

	// File values apply only where the corresponding environment variable
	// is not set: the environment wins, the file beats the defaults.
	mergeString(&cfg.FFmpegPath, fc.FFmpegPath, "GSPREP_FFMPEG")
	mergeString(&cfg.ColmapPath, fc.ColmapPath, "GSPREP_COLMAP")
	mergeString(&cfg.ColmapDir, fc.ColmapDir, "GSPREP_COLMAP_DIR")
	mergeInt(&cfg.FPS, fc.FPS, "GSPREP_FPS")
	mergeInt(&cfg.Threads, fc.Threads, "GSPREP_THREADS")
	mergeString(&cfg.ColmapImage, fc.ColmapImage, "GSPREP_COLMAP_IMAGE")

	return cfg, nil
}

// loadFile reads and parses the project file. Returns (nil, nil) when the
// file does not exist.
func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Strip JSONC comments and trailing commas before parsing.
	clean := jsonc.ToJSON(data)

	var fc fileConfig
	if err := json.Unmarshal(clean, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &fc, nil
}

// mergeString overrides dst with the file value unless the named
// environment variable is set.
func mergeString(dst *string, file *string, envName string) {
	if file == nil {
		return
	}
	if _, set := os.LookupEnv(envName); set {
		return
	}
	*dst = *file
}

// mergeInt overrides dst with the file value unless the named
// environment variable is set.
func mergeInt(dst *int, file *int, envName string) {
	if file == nil {
		return
	}
	if _, set := os.LookupEnv(envName); set {
		return
	}
	*dst = *file
}
