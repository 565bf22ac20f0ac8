package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findCommand looks up a direct subcommand by name.
func findCommand(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, c := range root.Commands() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("subcommand %q not registered", name)
	return nil
}

// TestRootCommandWiring verifies that all subcommands are registered and
// the global flags exist.
func TestRootCommandWiring(t *testing.T) {
	root := NewRootCommand()

	for _, name := range []string{"frames", "sparse", "stats", "doctor"} {
		findCommand(t, root, name)
	}

	assert.NotNil(t, root.PersistentFlags().Lookup("json"))
	assert.NotNil(t, root.PersistentFlags().Lookup("verbose"))
}

// TestFramesFlagDefaults verifies the frames command's flag contract:
// required paths and the documented default frame rate.
func TestFramesFlagDefaults(t *testing.T) {
	cmd := NewFramesCommand()

	fps := cmd.Flags().Lookup("fps")
	require.NotNil(t, fps)
	assert.Equal(t, "10", fps.DefValue)

	for _, name := range []string{"video", "out", "overwrite"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %q must exist", name)
	}
}

// TestSparseFlagDefaults verifies the sparse command's flag contract:
// sequential matching and 8 mapper threads by default.
func TestSparseFlagDefaults(t *testing.T) {
	cmd := NewSparseCommand()

	matcher := cmd.Flags().Lookup("matcher")
	require.NotNil(t, matcher)
	assert.Equal(t, "sequential", matcher.DefValue)

	threads := cmd.Flags().Lookup("threads")
	require.NotNil(t, threads)
	assert.Equal(t, "8", threads.DefValue)

	for _, name := range []string{"images", "out", "single_camera", "docker"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %q must exist", name)
	}
}
