// Package sfmdb provides read-only inspection of a COLMAP database file.
//
// COLMAP stores extracted features and matches in a SQLite database
// (database.db in the job root). The reconstruction pipeline itself never
// looks inside it (ordering between stages is purely filesystem-based),
// but after a run it is useful to see how much the tool actually found:
// a reconstruction can "succeed" with too few matches to register images.
//
// The pure-Go modernc.org/sqlite driver is used so inspection works
// without cgo or a system SQLite installation.
package sfmdb

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// Stats summarizes the contents of a COLMAP database.
type Stats struct {
	// Cameras is the number of camera models. With single-camera image
	// reading this is 1 regardless of frame count.
	Cameras int `json:"cameras"`

	// Images is the number of images the feature extractor registered.
	Images int `json:"images"`

	// Keypoints is the total number of detected keypoints across all images.
	Keypoints int64 `json:"keypoints"`

	// MatchedPairs is the number of image pairs with at least one raw
	// feature match.
	MatchedPairs int `json:"matchedPairs"`

	// VerifiedPairs is the number of image pairs that survived geometric
	// verification (two-view geometries). This is the number the mapper
	// actually works from.
	VerifiedPairs int `json:"verifiedPairs"`
}

// DB is a read-only handle on a COLMAP database file.
type DB struct {
	db *sql.DB
}

// Open opens an existing COLMAP database read-only.
// A missing file is an error: this package never creates databases,
// that is the feature extractor's job.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("colmap database not found: %s", path)
	}

	// mode=ro keeps the driver from creating or mutating the file; the
	// database may be large and should never be touched by inspection.
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open colmap database: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database handle.
func (d *DB) Close() error {
	return d.db.Close()
}

// Stats reads the summary counts from the database.
func (d *DB) Stats() (*Stats, error) {
	var s Stats

	if err := d.db.QueryRow(`SELECT COUNT(*) FROM cameras`).Scan(&s.Cameras); err != nil {
		return nil, fmt.Errorf("failed to count cameras: %w", err)
	}
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM images`).Scan(&s.Images); err != nil {
		return nil, fmt.Errorf("failed to count images: %w", err)
	}

	// keypoints/matches store one blob row per image (or pair) with a
	// "rows" column holding the element count; summing it gives totals
	// without decoding the blobs.
	if err := d.db.QueryRow(
		`SELECT COALESCE(SUM(rows), 0) FROM keypoints`).Scan(&s.Keypoints); err != nil {
		return nil, fmt.Errorf("failed to count keypoints: %w", err)
	}
	if err := d.db.QueryRow(
		`SELECT COUNT(*) FROM matches WHERE rows > 0`).Scan(&s.MatchedPairs); err != nil {
		return nil, fmt.Errorf("failed to count matched pairs: %w", err)
	}
	if err := d.db.QueryRow(
		`SELECT COUNT(*) FROM two_view_geometries WHERE rows > 0`).Scan(&s.VerifiedPairs); err != nil {
		return nil, fmt.Errorf("failed to count verified pairs: %w", err)
	}

	return &s, nil
}
