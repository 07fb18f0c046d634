package outline

import "errors"

var (
	// ErrNotFound is returned when an edit references a missing node or edge.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFormat is returned by Load for unknown file formats.
	ErrUnsupportedFormat = errors.New("unsupported outline format")
)
