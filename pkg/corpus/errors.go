package corpus

import "errors"

var (
	// ErrNotFound is returned when a word-list file or a stored corpus does not exist.
	ErrNotFound = errors.New("corpus: not found")

	// ErrUnknownEncoding is returned for an encoding label that is not recognised.
	ErrUnknownEncoding = errors.New("corpus: unknown encoding")

	// ErrInvalidName is returned for a corpus name that cannot be stored.
	ErrInvalidName = errors.New("corpus: invalid name")
)
