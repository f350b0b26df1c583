package file

import "errors"

var (
	// ErrFileNotFound signals that no record matches the locator.
	ErrFileNotFound = errors.New("file not found")
	// ErrDuplicatePath is returned when the canonical key is already taken.
	ErrDuplicatePath = errors.New("file with this path already exists")
	// ErrForbidden signals the record exists but may not be downloaded.
	ErrForbidden = errors.New("file is not downloadable")
	// ErrStorageWriteFailed wraps object store put failures. The metadata row stays.
	ErrStorageWriteFailed = errors.New("object storage write failed")
	// ErrStorageReadFailed wraps object store get failures and local copy errors.
	ErrStorageReadFailed = errors.New("object storage read failed")
	// ErrInvalidPath rejects requested paths with traversal or empty segments.
	ErrInvalidPath = errors.New("invalid file path")
	// ErrFileTooLarge signals that the upload exceeds configured limits.
	ErrFileTooLarge = errors.New("file too large")
)
