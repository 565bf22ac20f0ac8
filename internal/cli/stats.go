// stats.go implements the "gsprep stats" command: read-only inspection of
// a COLMAP database produced by the sparse command.
//
// The reconstruction pipeline does not itself validate that matching found
// enough overlap to register images; stats makes that visible after the
// fact without re-running anything.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/litegs/gsprep/internal/model"
	"github.com/litegs/gsprep/internal/sfmdb"
)

// NewStatsCommand creates the "stats" cobra command.
func NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <job-root | database.db>",
		Short: "Summarize a COLMAP database (images, keypoints, matches)",
		Long: `Print summary counts from a COLMAP database.

The argument is either a job root directory (database.db is looked up
inside it) or a database file path. The database is opened read-only.

Example:
  gsprep stats data/walkthrough`,

		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(args[0])
		},
	}
}

// runStats resolves the database path, reads the counts, and prints them.
func runStats(arg string) error {
	dbPath := arg
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		dbPath = model.NewJobLayout(arg).DatabasePath()
	}

	db, err := sfmdb.Open(dbPath)
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "failed to open colmap database", err)
	}
	defer db.Close()

	stats, err := db.Stats()
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "failed to read colmap database", err)
	}

	printStats(dbPath, stats)
	return nil
}

// printStats outputs the database summary in text or JSON format.
func printStats(dbPath string, stats *sfmdb.Stats) {
	if IsJSONOutput() {
		out := struct {
			Database string       `json:"database"`
			Stats    *sfmdb.Stats `json:"stats"`
		}{filepath.Clean(dbPath), stats}

		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Database: %s\n", filepath.Clean(dbPath))
	fmt.Printf("  Cameras:        %d\n", stats.Cameras)
	fmt.Printf("  Images:         %d\n", stats.Images)
	fmt.Printf("  Keypoints:      %d\n", stats.Keypoints)
	fmt.Printf("  Matched pairs:  %d\n", stats.MatchedPairs)
	fmt.Printf("  Verified pairs: %d\n", stats.VerifiedPairs)

	if stats.Images > 0 && stats.VerifiedPairs == 0 {
		// Matching that verified nothing means the mapper had nothing to
		// work from; point the user at the likely causes.
		fmt.Println()
		fmt.Println("No geometrically verified pairs: the images may lack overlap,")
		fmt.Println("or matching has not been run yet.")
	}
}
