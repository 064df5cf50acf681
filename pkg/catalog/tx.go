package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/starworks/depot/pkg/model"
)

// IngestResult reports what a CommitIngest transaction did
type IngestResult struct {
	// Entry is the tree entry as stored
	Entry model.TreeEntry

	// Record is the authoritative content record: the one just written,
	// or the pre-existing one when the content was already known
	Record model.ContentRecord

	// RecordCreated is false when the fingerprint was already in the
	// catalog, either from a past upload or from a concurrent one
	RecordCreated bool

	_ struct{}
}

// CommitIngest writes the content record (unless one already exists for
// the fingerprint) and the new tree entry in a single transaction.
//
// A concurrent identical upload may insert the record between the
// caller's lookup and this commit; the resulting constraint violation
// is absorbed here and the surviving record is treated as
// authoritative. The tree entry is always inserted fresh: names and
// locations are independent of content identity.
func (c *Catalog) CommitIngest(ctx context.Context, rec model.ContentRecord, entry model.TreeEntry) (IngestResult, error) {
	conn, err := c.pool.Take(ctx)
	if err != nil {
		return IngestResult{}, fmt.Errorf("catalog: commit ingest: %w", err)
	}
	defer c.pool.Put(conn)

	var res IngestResult
	endTx, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return IngestResult{}, fmt.Errorf("catalog: commit ingest: begin: %w", err)
	}
	defer endTx(&err)

	if err = requireFolder(conn, entry.ParentKey); err != nil {
		return IngestResult{}, err
	}

	res.RecordCreated, err = insertContentRecord(conn, rec)
	if err != nil {
		return IngestResult{}, fmt.Errorf("catalog: inserting content record %q: %w", rec.Fingerprint, err)
	}
	res.Record, err = getContentRecord(conn, rec.Fingerprint)
	if err != nil {
		return IngestResult{}, err
	}
	if !res.RecordCreated {
		c.l.Debug("content record already present, deduplicating",
			zap.String("fingerprint", rec.Fingerprint),
			zap.Uint64("size", res.Record.Size))
	}

	res.Entry, err = insertEntry(conn, entry)
	if err != nil {
		return IngestResult{}, err
	}
	return res, nil
}

// DeleteResult reports the rows removed by a delete operation
type DeleteResult struct {
	// Deleted counts the removed tree entries
	Deleted int

	// OrphanedFingerprints lists the fingerprints whose last referencing
	// entry was removed; their content records are already gone and the
	// caller should delete the backing blobs
	OrphanedFingerprints []string

	_ struct{}
}

// DeleteEntry removes a single tree entry. Folders must be empty:
// removing a folder with children requires DeleteSubtree, so that no
// child is ever orphaned. When the removed file entry was the last
// reference to its content record, the record is removed in the same
// transaction and the fingerprint is reported for blob cleanup.
func (c *Catalog) DeleteEntry(ctx context.Context, key string) (DeleteResult, error) {
	conn, err := c.pool.Take(ctx)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("catalog: delete entry: %w", err)
	}
	defer c.pool.Put(conn)

	var res DeleteResult
	endTx, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("catalog: delete entry: begin: %w", err)
	}
	defer endTx(&err)

	var entry model.TreeEntry
	entry, err = getEntry(conn, key)
	if err != nil {
		return DeleteResult{}, err
	}
	if entry.Kind == model.KindFolder {
		var children []model.TreeEntry
		children, err = descendants(conn, key)
		if err != nil {
			return DeleteResult{}, err
		}
		if len(children) > 0 {
			err = ErrFolderNotEmpty.WrapMessage(nil, "folder %q has %d descendants", key, len(children))
			return DeleteResult{}, err
		}
	}

	res, err = deleteEntries(conn, []model.TreeEntry{entry})
	return res, err
}

// DeleteSubtree removes the entry and every descendant. File entries
// are removed first, folders after their children, the target entry
// last; orphaned content records are removed in the same transaction.
func (c *Catalog) DeleteSubtree(ctx context.Context, key string) (DeleteResult, error) {
	conn, err := c.pool.Take(ctx)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("catalog: delete subtree: %w", err)
	}
	defer c.pool.Put(conn)

	var res DeleteResult
	endTx, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("catalog: delete subtree: begin: %w", err)
	}
	defer endTx(&err)

	var root model.TreeEntry
	root, err = getEntry(conn, key)
	if err != nil {
		return DeleteResult{}, err
	}
	var sub []model.TreeEntry
	sub, err = descendants(conn, key)
	if err != nil {
		return DeleteResult{}, err
	}

	// files first, then folders deepest-first, the target entry last
	ordered := make([]model.TreeEntry, 0, len(sub)+1)
	for _, e := range sub {
		if e.Kind == model.KindFile {
			ordered = append(ordered, e)
		}
	}
	for i := len(sub) - 1; i >= 0; i-- {
		if sub[i].Kind == model.KindFolder {
			ordered = append(ordered, sub[i])
		}
	}
	ordered = append(ordered, root)

	res, err = deleteEntries(conn, ordered)
	return res, err
}

// deleteEntries removes the given rows in order and garbage-collects
// content records that lose their last reference
func deleteEntries(conn *sqlite.Conn, entries []model.TreeEntry) (DeleteResult, error) {
	var res DeleteResult
	fingerprints := make(map[string]struct{})

	for _, entry := range entries {
		err := sqlitex.Execute(conn,
			"DELETE FROM tree_entries WHERE key = ?",
			&sqlitex.ExecOptions{Args: []any{entry.Key}})
		if err != nil {
			return DeleteResult{}, fmt.Errorf("catalog: deleting entry %q: %w", entry.Key, err)
		}
		res.Deleted += conn.Changes()
		if entry.Fingerprint != "" {
			fingerprints[entry.Fingerprint] = struct{}{}
		}
	}

	for fp := range fingerprints {
		refs, err := referenceCount(conn, fp)
		if err != nil {
			return DeleteResult{}, fmt.Errorf("catalog: counting references to %q: %w", fp, err)
		}
		if refs > 0 {
			continue
		}
		if err := deleteContentRecord(conn, fp); err != nil {
			return DeleteResult{}, fmt.Errorf("catalog: deleting content record %q: %w", fp, err)
		}
		res.OrphanedFingerprints = append(res.OrphanedFingerprints, fp)
	}
	return res, nil
}
