package artifact

import "errors"

var (
	// ErrNotFound indicates no artifact exists with the given ID.
	ErrNotFound = errors.New("artifact not found")

	// ErrMissingMimeType indicates a draft without a mimetype.
	ErrMissingMimeType = errors.New("artifact mimetype is required")

	// ErrMissingDescription indicates a draft without a description.
	ErrMissingDescription = errors.New("artifact description is required")

	// ErrMissingSource indicates a draft without a usable source URI.
	ErrMissingSource = errors.New("artifact requires at least one source URI")
)
