package assign

import "errors"

// Sentinel kinds for assignment errors.
var (
	ErrUnknownAlgorithm = errors.New("unknown assignment algorithm")
)
