package cli

import "errors"

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	// Config errors
	ErrConfigInvalid = "CONFIG_INVALID"

	// Outline errors
	ErrOutlineNotSpecified = "OUTLINE_NOT_SPECIFIED"
	ErrOutlineNotFound     = "OUTLINE_NOT_FOUND"
	ErrOutlineInvalid      = "OUTLINE_INVALID"
	ErrUnsupportedFormat   = "UNSUPPORTED_FORMAT"

	// Query errors
	ErrQueryInvalid = "QUERY_INVALID"
	ErrEdgeNotFound = "EDGE_NOT_FOUND"

	// Input errors
	ErrInvalidInput = "INVALID_INPUT"
	ErrNoLastQuery  = "NO_LAST_QUERY"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnQueryDiagnostic = "QUERY_DIAGNOSTIC"
)

// errReported is returned after an error has already been written as a JSON
// envelope, so Execute exits non-zero without printing it again.
var errReported = errors.New("error already reported")
