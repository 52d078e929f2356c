package sources

import "github.com/cockroachdb/errors"

var (
	// ErrNotFound is returned when a local file is missing or nothing in the
	// catalog matches a query.
	ErrNotFound = errors.New("not found")
	// ErrResolution is returned when remote extraction or the network fails.
	ErrResolution = errors.New("resolution failed")
	// ErrInvalidIndex is returned for skip-to targets outside the queue.
	ErrInvalidIndex = errors.New("invalid queue position")
	// ErrTransport is returned when streaming fails mid-session.
	ErrTransport = errors.New("transport failure")
	// ErrNotPlaying is returned by operations that need an active track.
	ErrNotPlaying = errors.New("no track is currently playing")
)
