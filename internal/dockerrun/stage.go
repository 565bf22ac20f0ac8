package dockerrun

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/docker/pkg/stdcopy"
	"go.uber.org/zap"

	"github.com/litegs/gsprep/internal/subproc"
)

// StageExecutor runs COLMAP stages inside containers of a configured
// image. It implements the colmap.Executor interface.
//
// Every host directory in mountDirs is bind-mounted at the identical path
// inside the container, so the COLMAP argument lists built by the pipeline
// (which reference host paths) work unchanged. This relies on the job
// paths being absolute, which the pipeline guarantees.
type StageExecutor struct {
	cli       *Client
	image     string
	mountDirs []string
	log       *zap.Logger

	// pulled tracks whether the image pull was already attempted, so a
	// multi-stage run pulls at most once.
	pulled bool
}

// NewStageExecutor creates a container-backed stage executor.
// mountDirs lists the host directories the stages need (the images
// directory and the job output root).
func NewStageExecutor(cli *Client, imageRef string, mountDirs []string, log *zap.Logger) *StageExecutor {
	return &StageExecutor{cli: cli, image: imageRef, mountDirs: mountDirs, log: log}
}

// Describe renders an equivalent docker run command line for logging.
func (s *StageExecutor) Describe(args []string) string {
	var b strings.Builder
	b.WriteString("docker run --rm")
	for _, dir := range s.mountDirs {
		fmt.Fprintf(&b, " -v %s:%s", dir, dir)
	}
	b.WriteString(" " + s.image + " colmap " + strings.Join(args, " "))
	return b.String()
}

// RunStage creates a container for one COLMAP subcommand, waits for it to
// finish, and returns its exit code and demultiplexed output streams.
// The container is removed afterwards regardless of outcome.
func (s *StageExecutor) RunStage(ctx context.Context, args []string) (subproc.Result, error) {
	s.ensureImage(ctx)

	mounts := make([]mount.Mount, 0, len(s.mountDirs))
	for _, dir := range s.mountDirs {
		mounts = append(mounts, mount.Mount{
			Type:   mount.TypeBind,
			Source: dir,
			Target: dir,
		})
	}

	cmd := append([]string{"colmap"}, args...)
	created, err := s.cli.Inner().ContainerCreate(ctx,
		&container.Config{
			Image: s.image,
			Cmd:   strslice.StrSlice(cmd),
		},
		&container.HostConfig{Mounts: mounts},
		nil, nil, "")
	if err != nil {
		return subproc.Result{}, fmt.Errorf("failed to create colmap container: %w", err)
	}
	defer s.remove(created.ID)

	if err := s.cli.Inner().ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return subproc.Result{}, fmt.Errorf("failed to start colmap container: %w", err)
	}

	// Block until the container exits. This mirrors the synchronous
	// behavior of the local backend: no timeout, no cancellation beyond
	// what ctx provides.
	statusCh, errCh := s.cli.Inner().ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)

	var exitCode int
	select {
	case err := <-errCh:
		if err != nil {
			return subproc.Result{}, fmt.Errorf("failed waiting for colmap container: %w", err)
		}
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	}

	stdout, stderr := s.collectLogs(ctx, created.ID)
	return subproc.Result{ExitCode: exitCode, Stdout: stdout, Stderr: stderr}, nil
}

// ensureImage pulls the configured image once per executor. Pull failures
// are logged and ignored: the image may already be present locally, in
// which case container creation will succeed anyway.
func (s *StageExecutor) ensureImage(ctx context.Context) {
	if s.pulled {
		return
	}
	s.pulled = true

	rc, err := s.cli.Inner().ImagePull(ctx, s.image, image.PullOptions{})
	if err != nil {
		s.log.Warn("image pull failed, trying local image", zap.String("image", s.image), zap.Error(err))
		return
	}
	defer rc.Close()

	// The pull stream must be drained for the pull to complete.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		s.log.Warn("image pull stream ended early", zap.String("image", s.image), zap.Error(err))
	}
}

// collectLogs fetches and demultiplexes the container's output streams.
// Log retrieval failures degrade to empty output rather than failing the
// stage: the exit code has already been determined.
func (s *StageExecutor) collectLogs(ctx context.Context, id string) (string, string) {
	rc, err := s.cli.Inner().ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		s.log.Warn("failed to fetch container logs", zap.Error(err))
		return "", ""
	}
	defer rc.Close()

	var stdout, stderr strings.Builder
	if _, err := stdcopy.StdCopy(&stdout, &stderr, rc); err != nil {
		s.log.Warn("failed to demultiplex container logs", zap.Error(err))
	}
	return stdout.String(), stderr.String()
}

// remove deletes the stage container. Best-effort: a leaked container is
// only noise, not a correctness problem.
func (s *StageExecutor) remove(id string) {
	// A fresh context: the stage's ctx may already be cancelled.
	if err := s.cli.Inner().ContainerRemove(context.Background(), id, container.RemoveOptions{Force: true}); err != nil {
		s.log.Warn("failed to remove stage container", zap.String("id", id), zap.Error(err))
	}
}
