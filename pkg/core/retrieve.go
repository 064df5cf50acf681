package core

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/starworks/depot/pkg/catalog"
	"github.com/starworks/depot/pkg/core/status"
	"github.com/starworks/depot/pkg/errors"
	"github.com/starworks/depot/pkg/model"
	storagestatus "github.com/starworks/depot/pkg/storage/status"
)

// Resolve looks up a tree entry by key. For file entries the content
// record is returned alongside; for folders it is zero.
func (e *Engine) Resolve(ctx context.Context, key string) (model.TreeEntry, model.ContentRecord, error) {
	entry, err := e.catalog.GetEntry(ctx, key)
	if err != nil {
		return model.TreeEntry{}, model.ContentRecord{}, mapCatalogErr(err)
	}
	if !entry.IsFile() {
		return entry, model.ContentRecord{}, nil
	}
	rec, err := e.catalog.GetContentRecord(ctx, entry.Fingerprint)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			// an entry row pointing at a missing record is a broken
			// catalog invariant, not a client error
			e.l.Error("tree entry references missing content record",
				zap.String("key", key),
				zap.String("fingerprint", entry.Fingerprint))
			return model.TreeEntry{}, model.ContentRecord{},
				status.ErrBlobMissing.WrapMessage(err, "no content record for %q", entry.Fingerprint)
		}
		return model.TreeEntry{}, model.ContentRecord{}, err
	}
	return entry, rec, nil
}

// OpenStream resolves a file entry and opens its content for
// streaming. The caller owns the returned reader and must close it.
//
// A missing catalog row reports ErrNotFound; a catalog row whose blob
// is gone reports ErrBlobMissing, a distinct integrity failure that is
// never folded into the client-facing 404.
func (e *Engine) OpenStream(ctx context.Context, key string) (io.ReadCloser, model.TreeEntry, model.ContentRecord, error) {
	entry, rec, err := e.Resolve(ctx, key)
	if err != nil {
		return nil, model.TreeEntry{}, model.ContentRecord{}, err
	}
	if !entry.IsFile() {
		return nil, model.TreeEntry{}, model.ContentRecord{},
			status.ErrNotFound.WrapMessage(nil, "entry %q is a folder", key)
	}

	blobKey := e.pather(rec.Fingerprint)
	rdr, err := e.blobs.Get(ctx, blobKey)
	if err != nil {
		if errors.Is(err, storagestatus.ErrNotFound) {
			e.l.Error("blob missing for catalogued content",
				zap.String("key", key),
				zap.String("fingerprint", rec.Fingerprint),
				zap.String("store", e.blobs.String()))
			return nil, model.TreeEntry{}, model.ContentRecord{},
				status.ErrBlobMissing.WrapMessage(err, "fingerprint %q", rec.Fingerprint)
		}
		return nil, model.TreeEntry{}, model.ContentRecord{},
			status.ErrStorageUnavailable.WrapMessage(err, "fetching blob %s", blobKey)
	}
	return rdr, entry, rec, nil
}

// FindByName returns entries whose display name contains the pattern,
// case-insensitively. The result set is unordered.
func (e *Engine) FindByName(ctx context.Context, pattern string) ([]model.TreeEntry, error) {
	return e.catalog.FindEntriesByName(ctx, pattern)
}

// ListChildren returns the direct children of a folder
func (e *Engine) ListChildren(ctx context.Context, folderKey string) ([]model.TreeEntry, error) {
	children, err := e.catalog.ListChildren(ctx, folderKey)
	if err != nil {
		return nil, mapCatalogErr(err)
	}
	return children, nil
}

// ListFiles returns every file entry in the catalog
func (e *Engine) ListFiles(ctx context.Context) ([]model.TreeEntry, error) {
	return e.catalog.ListFiles(ctx)
}

// Ping verifies that the catalog answers queries
func (e *Engine) Ping(ctx context.Context) error {
	return e.catalog.Ping(ctx)
}

// folderEntry resolves a key that must name an existing folder
func (e *Engine) folderEntry(ctx context.Context, key string) (model.TreeEntry, error) {
	entry, err := e.catalog.GetEntry(ctx, key)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return model.TreeEntry{}, status.ErrParentNotFound.Wrap(err)
		}
		return model.TreeEntry{}, err
	}
	if entry.Kind != model.KindFolder {
		return model.TreeEntry{}, status.ErrParentNotFound.WrapMessage(nil, "entry %q is not a folder", key)
	}
	return entry, nil
}
