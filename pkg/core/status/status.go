// Package status declares the error constants returned by the core
// operations. The transport adapter (CLI, HTTP, ...) is the only place
// where these are mapped to protocol-specific responses.
package status

import "github.com/starworks/depot/pkg/errors"

var (
	// ErrNotFound indicates that no tree entry matches the requested key.
	// A client-facing lookup failure: the 404 of the core.
	ErrNotFound = errors.New("entry not found")

	// ErrParentNotFound indicates that the target parent folder does not
	// resolve to an existing folder entry. A client-side validation error.
	ErrParentNotFound = errors.New("parent folder not found")

	// ErrFolderNotEmpty indicates a non-cascading delete on a folder that
	// still has children
	ErrFolderNotEmpty = errors.New("folder not empty")

	// ErrInvalidName indicates an empty or malformed entry name
	ErrInvalidName = errors.New("invalid name")

	// ErrIO indicates a failure reading or writing a client byte stream.
	// Callers may retry the whole operation once before surfacing it.
	ErrIO = errors.New("stream I/O failure")

	// ErrStorageUnavailable indicates that the blob backend is
	// unreachable. Fatal for the operation: nothing is committed to the
	// catalog without durable blob storage. Not retried inside the core.
	ErrStorageUnavailable = errors.New("blob storage unavailable")

	// ErrBlobMissing indicates that a catalog row references a blob the
	// store no longer has. This is an integrity failure demanding
	// operator attention, reported distinctly from ErrNotFound and never
	// silently treated as one.
	ErrBlobMissing = errors.New("blob missing for catalogued content")
)
