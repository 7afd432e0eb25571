package embedding

import "errors"

// Sentinel kinds for embedding errors.
var (
	// ErrEmptyTable indicates the source contained no usable vectors.
	ErrEmptyTable = errors.New("embedding table is empty")
	// ErrDimensionMismatch indicates mixed vector dimensions in one table.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrNoPath indicates no table path was configured.
	ErrNoPath = errors.New("no embedding table path configured")
)
