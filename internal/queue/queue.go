package queue

import "time"

// Item is a display-ready snapshot of one playable track.
// It is denormalized from the catalog so the queue stays valid even if the
// catalog row changes or disappears after queueing. Items are built once per
// catalog row and never mutated.
type Item struct {
	TrackID      int64
	Title        string
	Album        string
	Artist       string
	Path         string // file path for playback, always set
	CoverArtPath string // empty if the album has no cover art
	BitDepth     int    // 0 if unknown
	SampleRate   int    // 0 if unknown
	Format       string // e.g. "FLAC", empty if unknown
	Duration     time.Duration
}

// Queue is the ordered playback sequence plus the cursor tracking what is
// current. currentIndex is -1 when nothing is queued or playing; otherwise it
// always satisfies 0 <= currentIndex < len(items). Items and cursor are only
// ever updated together, never one without the other.
type Queue struct {
	items          []Item
	currentIndex   int
	currentAlbumID int64 // album the queue was last populated from, 0 if none
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{currentIndex: -1}
}

// Current returns the current item, or nil if none.
// The index is bounds-checked on every read: cursor drift after a concurrent
// replace is the main hazard this type guards against.
func (q *Queue) Current() *Item {
	if q.currentIndex < 0 || q.currentIndex >= len(q.items) {
		return nil
	}
	item := q.items[q.currentIndex]
	return &item
}

// CurrentIndex returns the cursor position (-1 if none).
func (q *Queue) CurrentIndex() int {
	return q.currentIndex
}

// CurrentAlbumID returns the id of the album the queue was last populated
// from, or 0 if the queue was never populated from an album.
func (q *Queue) CurrentAlbumID() int64 {
	return q.currentAlbumID
}

// CanGoNext reports whether a next item exists.
func (q *Queue) CanGoNext() bool {
	return q.currentIndex >= 0 && q.currentIndex+1 < len(q.items)
}

// CanGoPrevious reports whether a previous item exists.
func (q *Queue) CanGoPrevious() bool {
	return q.currentIndex > 0
}

// Advance moves the cursor to the next item and returns it.
// Returns nil without moving if there is no next item.
func (q *Queue) Advance() *Item {
	if !q.CanGoNext() {
		return nil
	}
	q.currentIndex++
	return q.Current()
}

// Retreat moves the cursor to the previous item and returns it.
// Returns nil without moving if already at the first item or empty.
func (q *Queue) Retreat() *Item {
	if !q.CanGoPrevious() {
		return nil
	}
	q.currentIndex--
	return q.Current()
}

// MoveTo sets the cursor to index and returns the item there.
// Returns nil without moving if index is out of bounds.
func (q *Queue) MoveTo(index int) *Item {
	if index < 0 || index >= len(q.items) {
		return nil
	}
	q.currentIndex = index
	return q.Current()
}

// Replace swaps the whole queue contents in one step: items are replaced and
// the cursor is reset to startIndex (clamped to 0 by callers that want the
// first track), or -1 if items is empty. Items and cursor never change
// independently.
func (q *Queue) Replace(items []Item, startIndex int, albumID int64) {
	q.items = make([]Item, len(items))
	copy(q.items, items)
	q.currentAlbumID = albumID
	if len(q.items) == 0 {
		q.currentIndex = -1
		return
	}
	if startIndex < 0 || startIndex >= len(q.items) {
		startIndex = 0
	}
	q.currentIndex = startIndex
}

// Clear removes all items and resets the cursor and album.
func (q *Queue) Clear() {
	q.items = nil
	q.currentIndex = -1
	q.currentAlbumID = 0
}

// Item returns the item at index, or nil if out of bounds.
func (q *Queue) Item(index int) *Item {
	if index < 0 || index >= len(q.items) {
		return nil
	}
	item := q.items[index]
	return &item
}

// Items returns a copy of all items.
func (q *Queue) Items() []Item {
	result := make([]Item, len(q.items))
	copy(result, q.items)
	return result
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	return len(q.items)
}

// IsEmpty reports whether the queue has no items.
func (q *Queue) IsEmpty() bool {
	return len(q.items) == 0
}

// Snapshot is an immutable copy of the queue state, taken as one unit so
// readers never observe a torn items/index pair.
type Snapshot struct {
	Items          []Item
	CurrentIndex   int
	CurrentAlbumID int64
}

// Snapshot returns a consistent copy of the queue state.
func (q *Queue) Snapshot() Snapshot {
	return Snapshot{
		Items:          q.Items(),
		CurrentIndex:   q.currentIndex,
		CurrentAlbumID: q.currentAlbumID,
	}
}

// Current returns the snapshot's current item, or nil if none.
func (s Snapshot) Current() *Item {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Items) {
		return nil
	}
	item := s.Items[s.CurrentIndex]
	return &item
}
