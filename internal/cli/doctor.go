// doctor.go implements the "gsprep doctor" command: check that the
// external tools gsprep depends on are available before starting a long
// job.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/litegs/gsprep/internal/colmap"
	"github.com/litegs/gsprep/internal/config"
	"github.com/litegs/gsprep/internal/dockerrun"
	"github.com/litegs/gsprep/internal/ffmpeg"
	"github.com/litegs/gsprep/internal/model"
)

// toolCheck is the result of probing one dependency.
type toolCheck struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
	// Detail is the resolved path on success or the failure reason.
	Detail string `json:"detail"`
	// Required marks tools whose absence fails the doctor command.
	// Docker is optional (only the --docker backend needs it).
	Required bool `json:"required"`
}

// NewDoctorCommand creates the "doctor" cobra command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that ffmpeg, COLMAP, and Docker are available",
		Long: `Probe the external tools gsprep depends on and report what was found.

ffmpeg and COLMAP are required for the frames and sparse commands
respectively. Docker is optional: it is only needed for 'sparse --docker'.

Exits non-zero if a required tool is missing.`,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context())
		},
	}
}

// runDoctor probes each dependency and reports the results.
func runDoctor(ctx context.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "failed to get current directory", err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "failed to load configuration", err)
	}

	checks := []toolCheck{
		checkFFmpeg(cfg),
		checkFFprobe(),
		checkColmap(cfg),
		checkDocker(ctx),
	}

	printDoctorResult(checks)

	for _, c := range checks {
		if c.Required && !c.OK {
			return model.NewCLIError(model.ExitFailure, fmt.Sprintf("required tool missing: %s", c.Name))
		}
	}
	return nil
}

func checkFFmpeg(cfg *config.Config) toolCheck {
	c := toolCheck{Name: "ffmpeg", Required: true}
	path, err := ffmpeg.Resolve(cfg.FFmpegPath)
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	c.OK = true
	c.Detail = path
	return c
}

func checkFFprobe() toolCheck {
	// ffprobe only feeds the duration field of the run manifest, so it is
	// never required.
	c := toolCheck{Name: "ffprobe"}
	path, err := exec.LookPath("ffprobe")
	if err != nil {
		c.Detail = "not on PATH (video duration will not be recorded)"
		return c
	}
	c.OK = true
	c.Detail = path
	return c
}

func checkColmap(cfg *config.Config) toolCheck {
	c := toolCheck{Name: "colmap", Required: true}
	toolsDir := cfg.ColmapDir
	if toolsDir == "" {
		toolsDir = colmap.DefaultToolsDir()
	}
	path, err := colmap.Resolve(cfg.ColmapPath, toolsDir)
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	c.OK = true
	c.Detail = path
	return c
}

func checkDocker(ctx context.Context) toolCheck {
	c := toolCheck{Name: "docker"}
	cli, err := dockerrun.NewClient()
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		c.Detail = err.Error()
		return c
	}
	c.OK = true
	c.Detail = "daemon reachable"
	return c
}

// printDoctorResult outputs the check results in text or JSON format.
func printDoctorResult(checks []toolCheck) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(struct {
			Checks []toolCheck `json:"checks"`
		}{checks}, "", "  ")
		fmt.Println(string(data))
		return
	}

	for _, c := range checks {
		status := "ok"
		if !c.OK {
			status = "missing"
			if !c.Required {
				status = "unavailable"
			}
		}
		fmt.Printf("  %-8s %-12s %s\n", c.Name, status, c.Detail)
	}
}
