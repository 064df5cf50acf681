// Package core implements the content-addressed ingestion pipeline,
// the folder tree operations, and the retrieval service.
//
// The engine orchestrates two external collaborators: the blob store
// (pkg/storage) holding file bytes keyed by content fingerprint, and
// the catalog (pkg/catalog) holding the metadata rows. File bytes are
// stored once per unique content; tree entries are always created
// fresh, because names and locations are independent of content
// identity.
package core

import (
	"github.com/starworks/depot/pkg/catalog"
	"github.com/starworks/depot/pkg/dlogger"
	"github.com/starworks/depot/pkg/fingerprint"
	"github.com/starworks/depot/pkg/storage"

	"go.uber.org/zap"
)

const (
	// DefaultBlobPrefix namespaces content blobs inside the store
	DefaultBlobPrefix = "blobs/"

	// DefaultExportConcurrency bounds concurrent blob fetches during a
	// bulk export
	DefaultExportConcurrency = 4
)

// Engine exposes the core operations. It holds no per-request state
// and is safe for concurrent use: every operation re-reads the catalog,
// so concurrent mutations are always observed.
type Engine struct {
	catalog        *catalog.Catalog
	blobs          storage.Store
	hasher         *fingerprint.Maker
	l              *zap.Logger
	contributor    string
	prefix         string
	pather         func(string) string
	exportParallel int
}

// Option to configure the engine
type Option func(*Engine)

// Logger sets a logger for the engine
func Logger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.l = l
		}
	}
}

// Contributor sets the identity recorded on created rows
func Contributor(name string) Option {
	return func(e *Engine) {
		e.contributor = name
	}
}

// ChunkSize sets the read buffer used while hashing uploads
func ChunkSize(sz int64) Option {
	return func(e *Engine) {
		e.hasher = fingerprint.New(fingerprint.ChunkSize(sz))
	}
}

// BlobPrefix sets the key namespace for content blobs
func BlobPrefix(prefix string) Option {
	return func(e *Engine) {
		e.prefix = prefix
	}
}

// ExportConcurrency bounds the parallel blob fetches of a bulk export
func ExportConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.exportParallel = n
		}
	}
}

// New creates an engine over a catalog and a blob store
func New(cat *catalog.Catalog, blobs storage.Store, opts ...Option) *Engine {
	e := &Engine{
		catalog:        cat,
		blobs:          blobs,
		hasher:         fingerprint.New(),
		l:              dlogger.MustGetLogger(dlogger.LogLevelNone),
		prefix:         DefaultBlobPrefix,
		exportParallel: DefaultExportConcurrency,
	}
	for _, apply := range opts {
		apply(e)
	}
	e.pather = func(fp string) string { return e.prefix + fp }
	return e
}
