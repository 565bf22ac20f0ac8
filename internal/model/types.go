// Package model defines the domain types for the gsprep CLI.
//
// gsprep orchestrates two external tools (ffmpeg for frame extraction,
// COLMAP for sparse reconstruction). The types here describe the contract
// around those tools: which matching strategy to use, how an individual
// pipeline stage ended, and how failures map to process exit codes.
package model

import (
	"fmt"
	"strings"
)

// Matcher selects the COLMAP feature-matching strategy.
//
// Sequential matching assumes temporal adjacency between images (cheap,
// suited to video frames). Exhaustive matching compares all image pairs
// (costly, suited to unordered photo sets).
type Matcher string

const (
	// MatcherSequential invokes COLMAP's sequential_matcher subcommand.
	// This is the default because gsprep's primary input is video frames.
	MatcherSequential Matcher = "sequential"

	// MatcherExhaustive invokes COLMAP's exhaustive_matcher subcommand.
	MatcherExhaustive Matcher = "exhaustive"
)

// String returns the string representation of the matcher.
// This satisfies fmt.Stringer for CLI output and logging.
func (m Matcher) String() string {
	return string(m)
}

// IsValid checks whether the Matcher value is one of the supported strategies.
func (m Matcher) IsValid() bool {
	switch m {
	case MatcherSequential, MatcherExhaustive:
		return true
	default:
		return false
	}
}

// Subcommand returns the COLMAP subcommand name for this matching strategy.
func (m Matcher) Subcommand() string {
	return string(m) + "_matcher"
}

// ParseMatcher converts a string to a Matcher.
// Returns an error if the string does not name a supported strategy.
func ParseMatcher(s string) (Matcher, error) {
	m := Matcher(strings.ToLower(s))
	if !m.IsValid() {
		return "", fmt.Errorf("invalid matcher %q (valid: sequential, exhaustive)", s)
	}
	return m, nil
}

// StageOutcome describes how a single pipeline-stage invocation ended.
//
// The distinction between a fatal and an ignored failure is an explicit,
// per-stage decision: every stage of the reconstruction pipeline is fatal
// on failure except the final model conversion, whose failure is absorbed
// because the binary-format model remains usable without the text copy.
type StageOutcome string

const (
	// StageSucceeded indicates the external tool exited with code 0.
	StageSucceeded StageOutcome = "succeeded"

	// StageFailedFatal indicates a non-zero exit that aborts the pipeline.
	StageFailedFatal StageOutcome = "failed-fatal"

	// StageFailedIgnored indicates a non-zero exit that the pipeline
	// absorbs: the stage's output is optional and the run continues.
	StageFailedIgnored StageOutcome = "failed-ignored"
)

// String returns the string representation of the stage outcome.
func (o StageOutcome) String() string {
	return string(o)
}

// IsValid checks whether the StageOutcome is one of the defined values.
func (o StageOutcome) IsValid() bool {
	switch o {
	case StageSucceeded, StageFailedFatal, StageFailedIgnored:
		return true
	default:
		return false
	}
}

// Failed reports whether the stage's external tool exited non-zero,
// regardless of whether the failure was fatal to the pipeline.
func (o StageOutcome) Failed() bool {
	return o == StageFailedFatal || o == StageFailedIgnored
}

// ExitCode defines the CLI exit codes.
//
// The contract is intentionally narrow: 0 for success, 1 for every failure
// gsprep detects itself (missing inputs, overwrite guard, no frames
// produced, a fatal pipeline stage). When ffmpeg itself fails, its own
// exit code is passed through so callers can distinguish tool failures
// from orchestration failures.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitFailure is the generic failure code: invalid input paths,
	// guard-condition aborts, silent-no-output and fatal stage failures.
	ExitFailure ExitCode = 1
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes, including exit codes passed
// through from a failed external tool.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Output is captured stdout/stderr from a failed external tool,
	// included so the user sees what the tool itself reported.
	Output string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ToolError creates a CLIError for a failed external tool invocation.
// The tool's exit code becomes the process exit code and its captured
// output is preserved for display.
func ToolError(exitCode int, message, output string) *CLIError {
	code := ExitCode(exitCode)
	if code == ExitSuccess {
		// A tool that "failed" with exit 0 still has to surface as a
		// failure to the shell.
		code = ExitFailure
	}
	return &CLIError{Code: code, Message: message, Output: output}
}
