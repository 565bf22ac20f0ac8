// Package dockerrun provides the containerized COLMAP execution backend.
//
// COLMAP is painful to install on some platforms, so gsprep can run each
// reconstruction stage in the official COLMAP image instead of a local
// binary (--docker). The package wraps the Docker Engine SDK client with
// automatic socket detection and exposes a StageExecutor that creates a
// container per stage, bind-mounting the job paths at identical paths
// inside the container so the COLMAP argument lists stay unchanged.
package dockerrun
