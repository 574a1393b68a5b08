package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lmeunier/resonance/internal/catalog"
	"github.com/lmeunier/resonance/internal/meta"
)

func openTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// writeTrack creates a file with a music extension but junk content; scans
// index it through the tag fallbacks.
func writeTrack(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanner_IndexesMusicFiles(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()
	writeTrack(t, dir, "01 - One.flac")
	writeTrack(t, dir, "02 - Two.mp3")
	if err := os.WriteFile(filepath.Join(dir, "cover.jpg"), []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}

	stats, err := NewScanner(store).Scan(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if stats.Discovered != 2 {
		t.Errorf("Discovered = %d, want 2", stats.Discovered)
	}
	if stats.Indexed != 2 {
		t.Errorf("Indexed = %d, want 2", stats.Indexed)
	}

	paths, err := store.AllTrackPaths(context.Background())
	if err != nil {
		t.Fatalf("AllTrackPaths: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("catalog has %d tracks, want 2", len(paths))
	}
}

func TestScanner_UntaggedFilesLandUnderUnknown(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()
	writeTrack(t, dir, "song.flac")

	if _, err := NewScanner(store).Scan(ctx, []string{dir}); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	// Upserts are idempotent, so re-upserting resolves the existing IDs.
	artistID, err := store.UpsertArtist(ctx, meta.UnknownArtist)
	if err != nil {
		t.Fatalf("resolve artist: %v", err)
	}
	albumID, err := store.UpsertAlbum(ctx, catalog.Album{ArtistID: artistID, Title: meta.UnknownAlbum})
	if err != nil {
		t.Fatalf("resolve album: %v", err)
	}

	tracks, err := store.TracksByAlbum(ctx, albumID)
	if err != nil {
		t.Fatalf("TracksByAlbum: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(tracks))
	}
	if tracks[0].Title != "song.flac" {
		t.Errorf("Title = %q, want filename fallback", tracks[0].Title)
	}
}

func TestScanner_AttachesDRFromSidecarLog(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()
	writeTrack(t, dir, "01.flac")
	if err := os.WriteFile(filepath.Join(dir, "dr.txt"), []byte("Official DR value: DR13\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	stats, err := NewScanner(store).Scan(ctx, []string{dir})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if stats.DRAlbums != 1 {
		t.Errorf("DRAlbums = %d, want 1", stats.DRAlbums)
	}

	artistID, _ := store.UpsertArtist(ctx, meta.UnknownArtist)
	albumID, _ := store.UpsertAlbum(ctx, catalog.Album{ArtistID: artistID, Title: meta.UnknownAlbum})
	album, err := store.AlbumByID(ctx, albumID)
	if err != nil {
		t.Fatalf("AlbumByID: %v", err)
	}
	if album.DRValue == nil || *album.DRValue != 13 {
		t.Errorf("album DR = %v, want 13", album.DRValue)
	}
}

func TestScanner_PrunesDeletedFiles(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()
	keep := writeTrack(t, dir, "keep.flac")
	gone := writeTrack(t, dir, "gone.flac")

	scanner := NewScanner(store)
	if _, err := scanner.Scan(ctx, []string{dir}); err != nil {
		t.Fatalf("first scan: %v", err)
	}

	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}
	stats, err := scanner.Scan(ctx, []string{dir})
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if stats.Pruned != 1 {
		t.Errorf("Pruned = %d, want 1", stats.Pruned)
	}

	paths, err := store.AllTrackPaths(ctx)
	if err != nil {
		t.Fatalf("AllTrackPaths: %v", err)
	}
	if len(paths) != 1 || paths[0] != keep {
		t.Errorf("paths = %v, want only %q", paths, keep)
	}
}

func TestScanner_MissingSourceIsNotFatal(t *testing.T) {
	store := openTestStore(t)

	stats, err := NewScanner(store).Scan(context.Background(), []string{"/nope/missing"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if stats.Discovered != 0 {
		t.Errorf("Discovered = %d, want 0", stats.Discovered)
	}
}
