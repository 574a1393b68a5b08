// Package library scans music folders into the catalog.
package library

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lmeunier/resonance/internal/catalog"
	"github.com/lmeunier/resonance/internal/meta"
)

const numWorkers = 8

// ScanStats holds statistics for a completed scan.
type ScanStats struct {
	Discovered int // music files found on disk
	Indexed    int // tracks upserted into the catalog
	Pruned     int // tracks removed because their file is gone
	DRAlbums   int // albums that got a DR value from a sidecar log
}

// Scanner indexes music folders into the catalog: tags become artist, album
// and track rows, and DR meter logs found next to the tracks become album DR
// values.
type Scanner struct {
	store *catalog.Store
}

func NewScanner(store *catalog.Store) *Scanner {
	return &Scanner{store: store}
}

// Scan walks the source directories and brings the catalog in line with what
// is on disk: new and changed files are indexed, deleted files pruned.
func (s *Scanner) Scan(ctx context.Context, sources []string) (ScanStats, error) {
	var stats ScanStats

	files := discoverFiles(sources)
	stats.Discovered = len(files)
	log.Debug().Int("files", len(files)).Msg("library: scan discovered files")

	tags := readTags(files)

	albumDirs, err := s.indexTags(ctx, tags, &stats)
	if err != nil {
		return stats, err
	}

	if err := s.attachDRValues(ctx, albumDirs, &stats); err != nil {
		return stats, err
	}

	keep := make(map[string]bool, len(files))
	for _, f := range files {
		keep[f] = true
	}
	pruned, err := s.store.PruneTracks(ctx, keep)
	if err != nil {
		return stats, err
	}
	stats.Pruned = pruned

	log.Info().
		Int("discovered", stats.Discovered).
		Int("indexed", stats.Indexed).
		Int("pruned", stats.Pruned).
		Int("dr_albums", stats.DRAlbums).
		Msg("library: scan complete")
	return stats, nil
}

// discoverFiles walks the source directories and returns all music files.
// Walk errors skip the offending entry and continue; a library scan should
// survive one unreadable folder.
func discoverFiles(sources []string) []string {
	var files []string
	for _, src := range sources {
		_ = filepath.WalkDir(src, func(path string, d os.DirEntry, walkErr error) error {
			if walkErr != nil {
				log.Debug().Err(walkErr).Str("path", path).Msg("library: skipping unreadable entry")
				return nil
			}
			if d.IsDir() || !meta.IsMusicFile(path) {
				return nil
			}
			files = append(files, path)
			return nil
		})
	}
	return files
}

// readTags extracts metadata from files in parallel. Files whose tags cannot
// be read at all are skipped.
func readTags(files []string) []*meta.Tag {
	workCh := make(chan string, len(files))
	resultCh := make(chan *meta.Tag, len(files))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range workCh {
				tg, err := meta.Read(path)
				if err != nil {
					log.Debug().Err(err).Str("path", path).Msg("library: skipping unreadable file")
					continue
				}
				resultCh <- tg
			}
		}()
	}

	for _, f := range files {
		workCh <- f
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var tags []*meta.Tag
	for tg := range resultCh {
		tags = append(tags, tg)
	}
	return tags
}

// indexTags upserts tags into the catalog sequentially, keeping SQLite to a
// single writer. Returns the directory holding each album's tracks for the
// DR pass.
func (s *Scanner) indexTags(ctx context.Context, tags []*meta.Tag, stats *ScanStats) (map[int64]string, error) {
	albumDirs := make(map[int64]string)

	for _, tg := range tags {
		artistID, err := s.store.UpsertArtist(ctx, tg.AlbumArtist)
		if err != nil {
			return nil, err
		}

		album := catalog.Album{ArtistID: artistID, Title: tg.Album}
		if tg.Year > 0 {
			y := tg.Year
			album.Year = &y
		}
		albumID, err := s.store.UpsertAlbum(ctx, album)
		if err != nil {
			return nil, err
		}

		track := catalog.Track{
			AlbumID:     albumID,
			Title:       tg.Title,
			TrackNumber: tg.TrackNumber,
			Path:        tg.Path,
		}
		if tg.Format != "" {
			f := tg.Format
			track.Format = &f
		}
		if _, err := s.store.UpsertTrack(ctx, track); err != nil {
			return nil, err
		}
		stats.Indexed++

		if _, ok := albumDirs[albumID]; !ok {
			albumDirs[albumID] = filepath.Dir(tg.Path)
		}
	}
	return albumDirs, nil
}

// attachDRValues scans each album's directory for DR meter logs and records
// the values, then fills album DR from track DR where logs gave nothing.
func (s *Scanner) attachDRValues(ctx context.Context, albumDirs map[int64]string, stats *ScanStats) error {
	for albumID, dir := range albumDirs {
		dr, ok := meta.ScanDirDR(dir)
		if !ok {
			continue
		}
		if err := s.store.SetAlbumDR(ctx, albumID, dr); err != nil {
			return err
		}
		stats.DRAlbums++
		log.Debug().Int64("album", albumID).Int("dr", dr).Msg("library: DR value from sidecar log")
	}

	return s.store.SyncAlbumDRValues(ctx)
}
