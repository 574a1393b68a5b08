package playback

import "fmt"

// FileNotFoundError reports a load request for a path that does not exist.
// The check happens once at call time; the file may still disappear between
// the check and the actual engine load.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return "file not found: " + e.Path
}

// DatabaseError wraps a catalog failure during queue population, including
// a requested start track that is not part of the fetched album.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error: %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}
