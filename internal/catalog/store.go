package catalog

import (
	"context"
	"database/sql"
	"fmt"

	dbutil "github.com/lmeunier/resonance/internal/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS artists (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS albums (
	id INTEGER PRIMARY KEY,
	artist_id INTEGER NOT NULL REFERENCES artists(id),
	title TEXT NOT NULL,
	year INTEGER,
	cover_art_path TEXT,
	dr_value INTEGER,
	UNIQUE(artist_id, title)
);

CREATE TABLE IF NOT EXISTS tracks (
	id INTEGER PRIMARY KEY,
	album_id INTEGER NOT NULL REFERENCES albums(id),
	title TEXT NOT NULL,
	track_number INTEGER NOT NULL DEFAULT 0,
	path TEXT NOT NULL UNIQUE,
	format TEXT,
	bit_depth INTEGER,
	sample_rate INTEGER,
	duration INTEGER,
	dr_value INTEGER
);

CREATE INDEX IF NOT EXISTS idx_tracks_album ON tracks(album_id);
`

// Store provides catalog access backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at path.
// Use ":memory:" for an ephemeral catalog.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := EnsureDir(path); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initializing catalog schema: %w", err)
	}

	return &Store{db: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ArtistByID fetches one artist.
func (s *Store) ArtistByID(ctx context.Context, id int64) (Artist, error) {
	var a Artist
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM artists WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name)
	if err != nil {
		return Artist{}, fmt.Errorf("fetching artist %d: %w", id, err)
	}
	return a, nil
}

// AlbumByID fetches one album.
func (s *Store) AlbumByID(ctx context.Context, id int64) (Album, error) {
	var a Album
	var year, dr sql.NullInt64
	var cover sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, artist_id, title, year, cover_art_path, dr_value
		 FROM albums WHERE id = ?`, id,
	).Scan(&a.ID, &a.ArtistID, &a.Title, &year, &cover, &dr)
	if err != nil {
		return Album{}, fmt.Errorf("fetching album %d: %w", id, err)
	}
	a.Year = dbutil.NullIntToPtr(year)
	a.CoverArtPath = dbutil.NullStringToPtr(cover)
	a.DRValue = dbutil.NullIntToPtr(dr)
	return a, nil
}

// TracksByAlbum fetches an album's tracks in playback order.
func (s *Store) TracksByAlbum(ctx context.Context, albumID int64) ([]Track, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, album_id, title, track_number, path, format, bit_depth,
		        sample_rate, duration, dr_value
		 FROM tracks WHERE album_id = ?
		 ORDER BY track_number, title`, albumID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching tracks for album %d: %w", albumID, err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var t Track
		var format sql.NullString
		var bitDepth, sampleRate, duration, dr sql.NullInt64
		err := rows.Scan(&t.ID, &t.AlbumID, &t.Title, &t.TrackNumber, &t.Path,
			&format, &bitDepth, &sampleRate, &duration, &dr)
		if err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		t.Format = dbutil.NullStringToPtr(format)
		t.BitDepth = dbutil.NullIntToPtr(bitDepth)
		t.SampleRate = dbutil.NullIntToPtr(sampleRate)
		t.Duration = dbutil.NullIntToPtr(duration)
		t.DRValue = dbutil.NullIntToPtr(dr)
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// UpsertArtist inserts an artist by name if missing and returns its id.
func (s *Store) UpsertArtist(ctx context.Context, name string) (int64, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artists (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
	if err != nil {
		return 0, fmt.Errorf("upserting artist: %w", err)
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM artists WHERE name = ?`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("fetching artist id: %w", err)
	}
	return id, nil
}

// UpsertAlbum inserts or refreshes an album and returns its id.
func (s *Store) UpsertAlbum(ctx context.Context, a Album) (int64, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO albums (artist_id, title, year, cover_art_path)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(artist_id, title) DO UPDATE SET
			year = COALESCE(excluded.year, albums.year),
			cover_art_path = COALESCE(excluded.cover_art_path, albums.cover_art_path)`,
		a.ArtistID, a.Title, dbutil.PtrToNullInt64(a.Year), dbutil.PtrToNullString(a.CoverArtPath))
	if err != nil {
		return 0, fmt.Errorf("upserting album: %w", err)
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM albums WHERE artist_id = ? AND title = ?`,
		a.ArtistID, a.Title).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("fetching album id: %w", err)
	}
	return id, nil
}

// UpsertTrack inserts or refreshes a track keyed by path and returns its id.
func (s *Store) UpsertTrack(ctx context.Context, t Track) (int64, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tracks
			(album_id, title, track_number, path, format, bit_depth, sample_rate, duration, dr_value)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			album_id = excluded.album_id,
			title = excluded.title,
			track_number = excluded.track_number,
			format = excluded.format,
			bit_depth = excluded.bit_depth,
			sample_rate = excluded.sample_rate,
			duration = excluded.duration,
			dr_value = COALESCE(excluded.dr_value, tracks.dr_value)`,
		t.AlbumID, t.Title, t.TrackNumber, t.Path,
		dbutil.PtrToNullString(t.Format), dbutil.PtrToNullInt64(t.BitDepth),
		dbutil.PtrToNullInt64(t.SampleRate), dbutil.PtrToNullInt64(t.Duration),
		dbutil.PtrToNullInt64(t.DRValue))
	if err != nil {
		return 0, fmt.Errorf("upserting track: %w", err)
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM tracks WHERE path = ?`, t.Path).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("fetching track id: %w", err)
	}
	return id, nil
}

// SetAlbumDR records the album-level Dynamic Range value.
func (s *Store) SetAlbumDR(ctx context.Context, albumID int64, dr int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE albums SET dr_value = ? WHERE id = ?`, dr, albumID)
	if err != nil {
		return fmt.Errorf("setting album DR: %w", err)
	}
	return nil
}

// SyncAlbumDRValues recomputes each album's DR value as the minimum of its
// tracks' DR values, for albums with no sidecar-log value of their own.
func (s *Store) SyncAlbumDRValues(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE albums SET dr_value = (
			SELECT MIN(t.dr_value) FROM tracks t
			WHERE t.album_id = albums.id AND t.dr_value IS NOT NULL
		)
		WHERE dr_value IS NULL`)
	if err != nil {
		return fmt.Errorf("syncing album DR values: %w", err)
	}
	return nil
}

// AllTrackPaths returns every track path in the catalog.
func (s *Store) AllTrackPaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM tracks`)
	if err != nil {
		return nil, fmt.Errorf("listing track paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// PruneTracks removes tracks whose paths are not in keep, then removes
// albums and artists left without any tracks. Returns the number of tracks
// removed.
func (s *Store) PruneTracks(ctx context.Context, keep map[string]bool) (int, error) {
	paths, err := s.AllTrackPaths(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	err = dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `DELETE FROM tracks WHERE path = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range paths {
			if keep[p] {
				continue
			}
			if _, err := stmt.ExecContext(ctx, p); err != nil {
				return err
			}
			removed++
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM albums WHERE id NOT IN (SELECT DISTINCT album_id FROM tracks)`); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`DELETE FROM artists WHERE id NOT IN (SELECT DISTINCT artist_id FROM albums)`)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("pruning tracks: %w", err)
	}
	return removed, nil
}
