package sources

import "errors"

var (
	// ErrDirNotFound is returned by Discover when the source directory
	// does not exist or cannot be read.
	ErrDirNotFound = errors.New("source directory not found")

	// ErrNoHeader is returned when a CSV file has no header row.
	ErrNoHeader = errors.New("csv file has no header row")
)
