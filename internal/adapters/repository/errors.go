package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrRunNotFound      = errors.New("allocation run not found")
	ErrCapacityConflict = errors.New("position capacity exceeded")
)
