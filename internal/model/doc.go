// Package model defines the domain types and value objects for the
// gsprep CLI.
//
// This package contains pure data structures with no external dependencies:
// the job directory layout, the matcher strategy enum, the per-stage outcome
// tri-state, exit codes (ExitCode) and a custom error type (CLIError) that
// carries exit codes for proper OS process exit handling.
//
// All entities are transient: gsprep keeps no state between runs other than
// the files the external tools leave on disk.
package model
