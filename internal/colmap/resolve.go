package colmap

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/litegs/gsprep/internal/model"
)

// Resolve locates the COLMAP executable.
//
// The search order is deterministic, stopping at the first hit:
//  1. An explicit path (GSPREP_COLMAP / gsprep.jsonc), used as-is after an
//     existence check.
//  2. A bundled copy under toolsDir, checked in a fixed candidate order:
//     the Windows launcher, then the binary under bin/ with and without
//     the .exe extension.
//  3. A system-wide PATH lookup.
//
// Each strategy is an ordered lookup function returning an optional path;
// exhausting them all yields a tool-not-found error before any filesystem
// mutation has happened.
func Resolve(explicit, toolsDir string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", model.WrapCLIError(model.ExitFailure,
				fmt.Sprintf("configured colmap not found: %s", explicit), err)
		}
		return explicit, nil
	}

	lookups := []func() (string, bool){
		func() (string, bool) { return fileCandidate(filepath.Join(toolsDir, "COLMAP.bat")) },
		func() (string, bool) { return fileCandidate(filepath.Join(toolsDir, "bin", "colmap.exe")) },
		func() (string, bool) { return fileCandidate(filepath.Join(toolsDir, "bin", "colmap")) },
		func() (string, bool) {
			path, err := exec.LookPath("colmap")
			return path, err == nil
		},
	}

	for _, lookup := range lookups {
		if path, ok := lookup(); ok {
			return path, nil
		}
	}

	return "", model.NewCLIError(model.ExitFailure,
		fmt.Sprintf("colmap not found (checked %s and PATH)", toolsDir))
}

// fileCandidate reports the path if a file exists there.
func fileCandidate(path string) (string, bool) {
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// DefaultToolsDir returns the bundled COLMAP directory relative to the
// gsprep installation root: <root>/tools/colmap, where the gsprep binary
// itself lives in <root>/bin. Falls back to a working-directory-relative
// path when the executable location cannot be determined.
func DefaultToolsDir() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("tools", "colmap")
	}
	root := filepath.Dir(filepath.Dir(exe))
	return filepath.Join(root, "tools", "colmap")
}
