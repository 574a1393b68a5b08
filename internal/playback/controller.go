package playback

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lmeunier/resonance/internal/catalog"
	"github.com/lmeunier/resonance/internal/engine"
	"github.com/lmeunier/resonance/internal/queue"
)

// Catalog is the read side of the music catalog the controller needs to
// populate its queue. *catalog.Store satisfies it.
type Catalog interface {
	AlbumByID(ctx context.Context, id int64) (catalog.Album, error)
	ArtistByID(ctx context.Context, id int64) (catalog.Artist, error)
	TracksByAlbum(ctx context.Context, albumID int64) ([]catalog.Track, error)
}

// Controller coordinates playback for a single host loop: it owns the queue,
// translates navigation into engine load/play calls, and folds incoming
// engine events back into its own position/duration state.
//
// The controller is not safe for concurrent use. It is designed for one task
// that interleaves navigation calls with TryGetEvent polling; multi-goroutine
// access belongs to QueueManager instead.
type Controller struct {
	engine  engine.Interface
	events  chan engine.Event
	catalog Catalog

	queue        *queue.Queue
	currentSong  string
	duration     time.Duration
	haveDuration bool
	position     time.Duration
}

// NewController creates a controller around an engine and its event channel.
// The channel must be the same one the engine emits on; the controller both
// drains it and injects its own SongChanged events into it.
func NewController(eng engine.Interface, events chan engine.Event, cat Catalog) *Controller {
	return &Controller{
		engine:  eng,
		events:  events,
		catalog: cat,
		queue:   queue.New(),
	}
}

// LoadSong prepares path for playback. The path is checked for existence
// once, here; it is not re-verified before the engine load. When the loaded
// path matches the queue's current item a SongChanged event is emitted for
// observers; a load with no current queue item is tolerated and logged,
// since queue population is expected but not enforced to happen first.
func (c *Controller) LoadSong(path string) error {
	if _, err := os.Stat(path); err != nil {
		log.Debug().Str("path", path).Msg("controller: file not found")
		return &FileNotFoundError{Path: path}
	}

	if err := c.engine.Load(path); err != nil {
		return err
	}
	c.currentSong = path
	c.duration, c.haveDuration = c.engine.Duration()

	if cur := c.queue.Current(); cur != nil {
		if cur.Path == path {
			c.emit(engine.SongChanged{Item: *cur})
		}
	} else {
		log.Warn().Str("path", path).Msg("controller: no current song in queue while loading")
	}
	return nil
}

// Play starts or resumes playback of the loaded song.
func (c *Controller) Play() error {
	return c.engine.Play()
}

// Pause pauses playback, keeping the position.
func (c *Controller) Pause() error {
	return c.engine.Pause()
}

// Stop stops playback.
func (c *Controller) Stop() error {
	return c.engine.Stop()
}

// Seek moves playback to pos.
func (c *Controller) Seek(pos time.Duration) error {
	return c.engine.Seek(pos)
}

// State returns the engine's playback state.
func (c *Controller) State() engine.State {
	return c.engine.State()
}

// Position returns the last position reported by the engine.
func (c *Controller) Position() time.Duration {
	return c.position
}

// Duration returns the duration of the loaded song, false if unknown.
func (c *Controller) Duration() (time.Duration, bool) {
	return c.duration, c.haveDuration
}

// CurrentSong returns the path of the loaded song, empty if none.
func (c *Controller) CurrentSong() string {
	return c.currentSong
}

// Queue returns a consistent snapshot of the controller's queue.
func (c *Controller) Queue() queue.Snapshot {
	return c.queue.Snapshot()
}

// NextSong advances to the next queued song and plays it. Running off the
// end of the queue is not an error: playback stops and the cursor stays on
// the last item.
func (c *Controller) NextSong() error {
	if c.queue.CanGoNext() {
		if next := c.queue.Advance(); next != nil {
			if err := c.LoadSong(next.Path); err != nil {
				return err
			}
			return c.engine.Play()
		}
		log.Debug().Msg("controller: no next song found")
	} else if c.queue.CurrentIndex() < 0 {
		log.Debug().Msg("controller: next with no current song")
	}

	return c.engine.Stop()
}

// PreviousSong goes back one queued song and plays it. At the first item it
// restarts the current song from the beginning instead, matching the usual
// media-player behavior for a first "previous" press.
func (c *Controller) PreviousSong() error {
	idx := c.queue.CurrentIndex()
	switch {
	case idx > 0:
		if prev := c.queue.Retreat(); prev != nil {
			if err := c.LoadSong(prev.Path); err != nil {
				return err
			}
			return c.engine.Play()
		}
		return nil
	case idx == 0:
		if err := c.engine.Stop(); err != nil {
			return err
		}
		if cur := c.queue.Current(); cur != nil {
			if err := c.LoadSong(cur.Path); err != nil {
				return err
			}
			return c.engine.Play()
		}
		return nil
	default:
		return nil
	}
}

// QueueAlbum replaces the queue with all of an album's tracks and starts
// playback from the first one.
func (c *Controller) QueueAlbum(ctx context.Context, albumID int64) error {
	return c.queueFromAlbum(ctx, albumID, nil)
}

// QueueTracksFrom replaces the queue with all of an album's tracks and
// starts playback from startTrackID. A start track that is not part of the
// album is a DatabaseError.
func (c *Controller) QueueTracksFrom(ctx context.Context, albumID, startTrackID int64) error {
	return c.queueFromAlbum(ctx, albumID, &startTrackID)
}

func (c *Controller) queueFromAlbum(ctx context.Context, albumID int64, startTrackID *int64) error {
	album, err := c.catalog.AlbumByID(ctx, albumID)
	if err != nil {
		return &DatabaseError{Op: "fetch album", Err: err}
	}
	artist, err := c.catalog.ArtistByID(ctx, album.ArtistID)
	if err != nil {
		return &DatabaseError{Op: "fetch artist", Err: err}
	}
	tracks, err := c.catalog.TracksByAlbum(ctx, albumID)
	if err != nil {
		return &DatabaseError{Op: "fetch tracks", Err: err}
	}

	startIndex := 0
	if startTrackID != nil {
		startIndex = -1
		for i, t := range tracks {
			if t.ID == *startTrackID {
				startIndex = i
				break
			}
		}
		if startIndex < 0 {
			return &DatabaseError{Op: "find start track", Err: errors.New("track not in album")}
		}
	}

	items := BuildQueueItems(album, artist, tracks)

	// Items and cursor change together; no observer can see one without
	// the other.
	c.queue.Replace(items, startIndex, albumID)

	if cur := c.queue.Current(); cur != nil {
		if err := c.LoadSong(cur.Path); err != nil {
			return err
		}
		return c.engine.Play()
	}
	return nil
}

// NextSongInfo returns the item a NextSong call would play, or nil at the
// end of the queue. Pure read, no side effects.
func (c *Controller) NextSongInfo() *queue.Item {
	idx := c.queue.CurrentIndex()
	if idx < 0 {
		return nil
	}
	return c.queue.Item(idx + 1)
}

// PreviousSongInfo returns the item a PreviousSong call would play. At the
// first item it returns the current one, mirroring the restart behavior.
func (c *Controller) PreviousSongInfo() *queue.Item {
	idx := c.queue.CurrentIndex()
	if idx < 0 {
		return nil
	}
	if idx == 0 {
		return c.queue.Current()
	}
	return c.queue.Item(idx - 1)
}

// TryGetEvent polls the event channel without blocking. A received event is
// processed internally first, so the controller's state is already current
// when the caller observes the event. Returns nil when no event is pending.
func (c *Controller) TryGetEvent() engine.Event {
	select {
	case ev := <-c.events:
		c.processEvent(ev)
		return ev
	default:
		return nil
	}
}

func (c *Controller) processEvent(ev engine.Event) {
	switch e := ev.(type) {
	case engine.PositionChanged:
		c.position = e.Position
	case engine.EndOfStream:
		if err := c.NextSong(); err != nil {
			log.Error().Err(err).Msg("controller: auto-advance failed")
		}
	case engine.Error:
		// Terminal for this playback attempt, not for the controller.
		log.Error().Str("message", e.Message).Msg("controller: playback error")
	case engine.SongChanged, engine.StateChanged:
		// Presentation-only, handled by observers.
	}
}

func (c *Controller) emit(ev engine.Event) {
	select {
	case c.events <- ev:
	default:
		log.Debug().Msgf("controller: dropping event %T, buffer full", ev)
	}
}

// BuildQueueItems denormalizes catalog rows into display-ready queue items.
func BuildQueueItems(album catalog.Album, artist catalog.Artist, tracks []catalog.Track) []queue.Item {
	items := make([]queue.Item, 0, len(tracks))
	for _, t := range tracks {
		item := queue.Item{
			TrackID: t.ID,
			Title:   t.Title,
			Album:   album.Title,
			Artist:  artist.Name,
			Path:    t.Path,
		}
		if album.CoverArtPath != nil {
			item.CoverArtPath = *album.CoverArtPath
		}
		if t.BitDepth != nil {
			item.BitDepth = *t.BitDepth
		}
		if t.SampleRate != nil {
			item.SampleRate = *t.SampleRate
		}
		if t.Format != nil {
			item.Format = *t.Format
		}
		if t.Duration != nil {
			item.Duration = time.Duration(*t.Duration) * time.Second
		}
		items = append(items, item)
	}
	return items
}
