package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/starworks/depot/pkg/catalog"
	"github.com/starworks/depot/pkg/core/status"
	"github.com/starworks/depot/pkg/errors"
	"github.com/starworks/depot/pkg/model"

	"github.com/google/uuid"
)

// CreateRoot creates the root folder of a new tree (an article).
// Roots carry no parent reference: root-ness is a property of the
// entry, not a self-referential link.
func (e *Engine) CreateRoot(ctx context.Context, title string) (model.TreeEntry, error) {
	if title == "" {
		return model.TreeEntry{}, status.ErrInvalidName.WrapMessage(nil, "empty title")
	}
	entry, err := e.catalog.CreateEntry(ctx, model.TreeEntry{
		Key:       uuid.NewString(),
		Name:      title,
		Kind:      model.KindFolder,
		CreatedBy: e.contributor,
	})
	if err != nil {
		return model.TreeEntry{}, err
	}
	e.l.Info("created article root", zap.String("key", entry.Key), zap.String("title", title))
	return entry, nil
}

// CreateFolder creates a folder under an existing parent folder
func (e *Engine) CreateFolder(ctx context.Context, name, parentKey string) (model.TreeEntry, error) {
	if name == "" {
		return model.TreeEntry{}, status.ErrInvalidName.WrapMessage(nil, "empty folder name")
	}
	entry, err := e.catalog.CreateEntry(ctx, model.TreeEntry{
		Key:       uuid.NewString(),
		Name:      name,
		ParentKey: parentKey,
		Kind:      model.KindFolder,
		CreatedBy: e.contributor,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrParentNotFound) {
			return model.TreeEntry{}, status.ErrParentNotFound.Wrap(err)
		}
		return model.TreeEntry{}, err
	}
	e.l.Info("created folder",
		zap.String("key", entry.Key),
		zap.String("name", name),
		zap.String("parent", parentKey))
	return entry, nil
}

// DeleteEntry removes a single entry. Folders must be empty; use
// DeleteSubtree to cascade. When the entry held the last reference to
// its content, the content record and the backing blob are removed too.
func (e *Engine) DeleteEntry(ctx context.Context, key string) error {
	res, err := e.catalog.DeleteEntry(ctx, key)
	if err != nil {
		return mapCatalogErr(err)
	}
	e.collectOrphanBlobs(ctx, res.OrphanedFingerprints)
	e.l.Info("deleted entry",
		zap.String("key", key),
		zap.Int("orphaned_blobs", len(res.OrphanedFingerprints)))
	return nil
}

// DeleteSubtree removes the entry and all its descendants: files
// first, folders after their children, the target last. Content
// records are garbage-collected per fingerprint: a record survives as
// long as any entry outside the subtree still references it.
//
// A retry against an already-deleted key reports ErrNotFound and
// changes nothing.
func (e *Engine) DeleteSubtree(ctx context.Context, key string) error {
	res, err := e.catalog.DeleteSubtree(ctx, key)
	if err != nil {
		return mapCatalogErr(err)
	}
	e.collectOrphanBlobs(ctx, res.OrphanedFingerprints)
	e.l.Info("deleted subtree",
		zap.String("key", key),
		zap.Int("entries", res.Deleted),
		zap.Int("orphaned_blobs", len(res.OrphanedFingerprints)))
	return nil
}

// collectOrphanBlobs removes blobs whose content records are gone.
// The catalog rows are already committed at this point: a failed blob
// delete only leaves reclaimable storage behind, so failures are
// logged, not surfaced.
func (e *Engine) collectOrphanBlobs(ctx context.Context, fingerprints []string) {
	for _, fp := range fingerprints {
		if err := e.blobs.Delete(ctx, e.pather(fp)); err != nil {
			e.l.Warn("orphaned blob left behind",
				zap.String("fingerprint", fp),
				zap.Error(err))
			continue
		}
		e.l.Debug("deleted orphaned blob", zap.String("fingerprint", fp))
	}
}

func mapCatalogErr(err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return status.ErrNotFound.Wrap(err)
	case errors.Is(err, catalog.ErrParentNotFound):
		return status.ErrParentNotFound.Wrap(err)
	case errors.Is(err, catalog.ErrFolderNotEmpty):
		return status.ErrFolderNotEmpty.Wrap(err)
	default:
		return err
	}
}
