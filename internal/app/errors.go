package service

import "errors"

// Package sentinel errors.
var (
	// ErrRunInProgress is returned when another allocation run holds
	// the run lock.
	ErrRunInProgress = errors.New("service: allocation run already in progress")

	// ErrInvalidRequest is returned for run requests the service
	// cannot execute (unknown algorithm, unknown ensemble method).
	ErrInvalidRequest = errors.New("service: invalid run request")
)
