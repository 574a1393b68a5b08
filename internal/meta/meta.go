// Package meta reads music file metadata and album dynamic-range reports.
package meta

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// File extensions the player can decode.
const (
	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
)

// Fallbacks for files with missing tags.
const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// Tag contains the music file metadata the library needs.
type Tag struct {
	Path        string
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Year        int
	TrackNumber int
	Format      string
}

// IsMusicFile reports whether path has a playable music extension.
func IsMusicFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtMP3, ExtFLAC:
		return true
	}
	return false
}

// Read reads tag metadata from a music file. Missing tags fall back to the
// filename for the title and "Unknown Artist" / "Unknown Album" for the
// rest, so a badly tagged file still lands in the library.
func Read(path string) (*Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t := &Tag{
		Path:   path,
		Format: formatForExt(path),
	}

	m, err := tag.ReadFrom(f)
	if err != nil {
		// Unparseable tags are not fatal; index the file by name.
		t.Title = filepath.Base(path)
		t.Artist = UnknownArtist
		t.AlbumArtist = UnknownArtist
		t.Album = UnknownAlbum
		return t, nil
	}

	t.Title = m.Title()
	if t.Title == "" {
		t.Title = filepath.Base(path)
	}

	t.Artist = m.Artist()
	if t.Artist == "" {
		t.Artist = UnknownArtist
	}
	t.AlbumArtist = m.AlbumArtist()
	if t.AlbumArtist == "" {
		t.AlbumArtist = t.Artist
	}

	t.Album = m.Album()
	if t.Album == "" {
		t.Album = UnknownAlbum
	}

	t.Year = m.Year()
	t.TrackNumber, _ = m.Track()

	return t, nil
}

func formatForExt(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return strings.TrimPrefix(ext, ".")
}
