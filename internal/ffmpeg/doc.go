// Package ffmpeg orchestrates frame extraction from a video file by
// driving the external ffmpeg binary.
//
// No video decoding happens in this package: ffmpeg does all the work.
// The package resolves the binary, validates input paths, enforces the
// overwrite guard, builds a single ffmpeg invocation, and verifies that
// frames actually appeared on disk afterwards: ffmpeg can exit 0 without
// producing output under some misconfigurations (e.g., codec issues), and
// that silent case must surface as a failure.
package ffmpeg
