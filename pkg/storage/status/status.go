// Package status declares error constants returned by
// implementations of the Store interface.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/storage and one
// of its implementations.
package status

import "github.com/starworks/depot/pkg/errors"

var (
	// Sentinel errors returned by implementations of the interface defined by storage

	// ErrNotFound indicates that the backend API call did not find the target object
	ErrNotFound = errors.New("object not found")

	// ErrExists indicates that the object already exists and cannot be overridden
	ErrExists = errors.New("object exists already")

	// ErrUnauthorized indicates that the provided credentials were rejected by the backend
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotSupported indicates that the backend does not support this call
	ErrNotSupported = errors.New("not supported")

	// ErrInvalidKey indicates that the object key has an invalid name
	ErrInvalidKey = errors.New("invalid object key")

	// ErrStorageAPI indicates any other backend API error
	ErrStorageAPI = errors.New("storage API error")
)
