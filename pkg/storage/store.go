// Package storage declares the capability interface over external
// object stores. Implementations live in subpackages (localfs, sthree)
// and are assumed to be fairly simple: the core depends on this
// interface only and never on a concrete backend.
package storage

import (
	"context"
	"io"
)

const (
	// OverWrite an existing object when putting
	OverWrite = false

	// NewOnly requires that the object does not exist yet
	NewOnly = true
)

// Store implementations know how to read and write objects by opaque
// string keys. Typically this is something file system-like: S3, local
// FS, NFS ...
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader, bool) error
	Delete(context.Context, string) error
	Keys(context.Context) ([]string, error)
}

const pipeBufferSize = 32 * 1024

// PipeIO copies a reader to a writer with a bounded buffer
func PipeIO(writer io.Writer, reader io.Reader) (written int64, err error) {
	buf := make([]byte, pipeBufferSize)
	return io.CopyBuffer(writer, reader, buf)
}
