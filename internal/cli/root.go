// Package cli implements the cobra-based commands for gsprep.
//
// Each subcommand (frames, sparse, stats, doctor) is defined in its own
// file within this package. This file defines the root command that serves
// as the parent for all subcommands and handles global flags.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/litegs/gsprep/internal/model"
)

// Global flag variables shared across all subcommands, bound to cobra
// persistent flags on the root command.
var (
	// jsonOutput switches command output to structured JSON for machine
	// consumption. Errors are emitted as JSON on stderr too.
	jsonOutput bool

	// verbose enables debug-level logging on stderr.
	verbose bool
)

// logger is the process-wide zap logger, built once flags are parsed.
// Commands obtain it via Logger().
var logger = zap.NewNop()

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package for --version output.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// The root command performs no action itself — it provides help text,
// global flags, and the logger setup shared by the subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gsprep",
		Short: "Prepare video/photo inputs for 3D Gaussian splatting training",
		Long: `gsprep prepares inputs for a 3D reconstruction pipeline.

It wraps two external tools: ffmpeg extracts frames from a video into the
job's images/ directory, and COLMAP turns a folder of images into a sparse
camera/point model under sparse/0. gsprep itself implements no computer
vision — it builds the tool invocations, runs them, checks exit codes,
and verifies the expected artifacts appeared.`,

		// Errors are formatted by Execute; keep cobra quiet.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		// The logger depends on --verbose, so it is built after flag
		// parsing but before any subcommand runs.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewFramesCommand())
	rootCmd.AddCommand(NewSparseCommand())
	rootCmd.AddCommand(NewStatsCommand())
	rootCmd.AddCommand(NewDoctorCommand())

	return rootCmd
}

// Execute runs the root command and translates errors into exit codes.
// CLIError values carry their own exit code — including exit codes passed
// through from a failed external tool; other errors exit with 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Output, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), "", nil)
		os.Exit(int(model.ExitFailure))
	}
}

// newLogger builds the stderr console logger. Debug level when --verbose,
// info otherwise. Timestamps are omitted for terminal readability;
// this is a short-lived CLI, not a service.
func newLogger(verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core)
}

// Logger returns the process-wide logger for subcommands.
func Logger() *zap.Logger {
	return logger
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}

// printError outputs an error in the appropriate format. toolOutput is the
// captured stdout/stderr of a failed external tool, shown so the user sees
// what the tool itself reported.
func printError(message, toolOutput string, underlying error) {
	if jsonOutput {
		errMap := map[string]interface{}{
			"message": message,
		}
		if underlying != nil {
			errMap["detail"] = underlying.Error()
		}
		if toolOutput != "" {
			errMap["toolOutput"] = toolOutput
		}
		// Errors go to stderr even in JSON mode; stdout is reserved for
		// successful command output.
		data, _ := json.MarshalIndent(map[string]interface{}{"error": errMap}, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
		return
	}

	if toolOutput != "" {
		fmt.Fprintln(os.Stderr, toolOutput)
	}
	if underlying != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	}
}
