package archive

import "errors"

var (
	// ErrNotFound means no record exists for the requested URL.
	ErrNotFound = errors.New("no archive record for url")

	// ErrNoMetadata means the record exists but extraction never produced
	// company and role, so it cannot be marked applied.
	ErrNoMetadata = errors.New("archive record has no company/role metadata")
)
