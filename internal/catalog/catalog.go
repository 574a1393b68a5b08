// Package catalog is the relational music catalog: artists, albums, and
// tracks persisted in SQLite, including the Dynamic Range values attached by
// the scanner. The playback coordinators consume it read-only through the
// fetch methods; the scanner owns the write side.
package catalog

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "resonance"
	dbFileName = "library.db"
)

// Artist is a catalog artist row.
type Artist struct {
	ID   int64
	Name string
}

// Album is a catalog album row. DRValue is the album-level Dynamic Range
// score parsed from sidecar log files, nil when no log was found.
type Album struct {
	ID           int64
	ArtistID     int64
	Title        string
	Year         *int
	CoverArtPath *string
	DRValue      *int
}

// Track is a catalog track row. Optional audio properties are nil when the
// scanner could not determine them.
type Track struct {
	ID          int64
	AlbumID     int64
	Title       string
	TrackNumber int
	Path        string
	Format      *string
	BitDepth    *int
	SampleRate  *int
	Duration    *int // seconds
	DRValue     *int
}

// DefaultPath returns the XDG data location of the catalog database.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// EnsureDir creates the parent directory of a database path.
func EnsureDir(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), 0o755)
}
