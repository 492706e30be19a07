package scheduler

import "errors"

// Scheduler errors. Every public operation reports failure synchronously;
// there is no asynchronous error channel and no retry.
var (
	// ErrNotInitialized is returned by any operation other than Init when
	// the scheduler has not been initialized.
	ErrNotInitialized = errors.New("scheduler is not initialized")

	// ErrNotFound is returned when an id is not present in the playback
	// table.
	ErrNotFound = errors.New("sound id not found")

	// ErrNoSongLoaded is returned by song operations when no song is
	// loaded.
	ErrNoSongLoaded = errors.New("no song loaded")
)
