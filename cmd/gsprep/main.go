// Package main is the entry point for the gsprep CLI.
//
// This binary prepares inputs for a 3D reconstruction pipeline: it
// extracts video frames with ffmpeg and drives COLMAP to build a sparse
// camera/point model. All functionality lives in the internal/cli
// package, which defines the cobra commands.
package main

import (
	"github.com/litegs/gsprep/internal/cli"
)

// version, commit, and date are set at build time via ldflags.
// During development they default to "dev", "none", and "unknown".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
