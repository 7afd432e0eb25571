package lock

import "errors"

// Sentinel kinds for run lock errors.
var (
	// ErrBusy indicates another allocation run currently holds the lock.
	ErrBusy = errors.New("allocation run already in progress")
	// ErrNotHeld indicates a release without a matching acquire, or a
	// lock that expired and was taken by someone else.
	ErrNotHeld = errors.New("run lock not held")
)
