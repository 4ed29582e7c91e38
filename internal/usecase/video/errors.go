package video

import "errors"

var (
	// ErrValidation covers bad or missing user input.
	ErrValidation = errors.New("video: invalid input")
	// ErrUnsupportedFormat is returned when the upload fails the allow-list.
	ErrUnsupportedFormat = errors.New("video: unsupported format")
	// ErrPayloadTooLarge is returned when the upload exceeds MaxFileSize.
	ErrPayloadTooLarge = errors.New("video: payload too large")
	// ErrForbidden is an authorization denial from the access filter.
	ErrForbidden = errors.New("video: forbidden")
	// ErrNotFound means the video record does not exist.
	ErrNotFound = errors.New("video: not found")
	// ErrRangeNotSatisfiable means the requested byte range starts past the end of the asset.
	ErrRangeNotSatisfiable = errors.New("video: range not satisfiable")

	// ErrObjectNotFound means the asset is missing from the backing store.
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrBucketNotFound means the configured bucket does not exist.
	ErrBucketNotFound = errors.New("storage: bucket not found")
	// ErrInternal is any other storage backend failure.
	ErrInternal = errors.New("storage: internal error")
)
