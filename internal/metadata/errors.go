package metadata

import "errors"

var (
	// ErrOriginMismatch is returned when the number of metadata files differs from the number of origins.
	ErrOriginMismatch = errors.New("each metadata file needs exactly one origin")
	// ErrTooFewOrigins is returned when fewer than two origins are combined.
	ErrTooFewOrigins = errors.New("combining metadata needs at least two origins")
	// ErrEmptyTable is returned when a metadata file has no header row.
	ErrEmptyTable = errors.New("metadata has no header")
)
