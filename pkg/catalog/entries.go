package catalog

import (
	"context"
	"fmt"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/starworks/depot/pkg/errors"
	"github.com/starworks/depot/pkg/model"
)

const entryColumns = "key, name, parent_key, kind, fingerprint, sort_order, created_at, created_by"

func scanEntry(stmt *sqlite.Stmt) model.TreeEntry {
	return model.TreeEntry{
		Key:         stmt.ColumnText(0),
		Name:        stmt.ColumnText(1),
		ParentKey:   stmt.ColumnText(2),
		Kind:        model.NodeKind(stmt.ColumnText(3)),
		Fingerprint: stmt.ColumnText(4),
		SortOrder:   stmt.ColumnInt64(5),
		CreatedAt:   timeFromNanos(stmt.ColumnInt64(6)),
		CreatedBy:   stmt.ColumnText(7),
	}
}

// GetEntry fetches a tree entry by its opaque key, or ErrNotFound
func (c *Catalog) GetEntry(ctx context.Context, key string) (model.TreeEntry, error) {
	conn, err := c.pool.Take(ctx)
	if err != nil {
		return model.TreeEntry{}, fmt.Errorf("catalog: get entry: %w", err)
	}
	defer c.pool.Put(conn)

	return getEntry(conn, key)
}

func getEntry(conn *sqlite.Conn, key string) (model.TreeEntry, error) {
	var entry model.TreeEntry
	found := false
	err := sqlitex.Execute(conn,
		"SELECT "+entryColumns+" FROM tree_entries WHERE key = ?",
		&sqlitex.ExecOptions{
			Args: []any{key},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				entry = scanEntry(stmt)
				found = true
				return nil
			},
		})
	if err != nil {
		return model.TreeEntry{}, fmt.Errorf("catalog: querying entry %q: %w", key, err)
	}
	if !found {
		return model.TreeEntry{}, ErrNotFound
	}
	return entry, nil
}

// requireFolder verifies that key names an existing folder entry
func requireFolder(conn *sqlite.Conn, key string) error {
	entry, err := getEntry(conn, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrParentNotFound
		}
		return err
	}
	if entry.Kind != model.KindFolder {
		return ErrParentNotFound.WrapMessage(nil, "entry %q is not a folder", key)
	}
	return nil
}

// insertEntry writes a tree entry row. The caller supplies the key.
func insertEntry(conn *sqlite.Conn, entry model.TreeEntry) (model.TreeEntry, error) {
	var parent any
	if entry.ParentKey != "" {
		parent = entry.ParentKey
	}
	var fp any
	if entry.Fingerprint != "" {
		fp = entry.Fingerprint
	}
	createdAt := nowNanos()
	err := sqlitex.Execute(conn,
		"INSERT INTO tree_entries (key, name, parent_key, kind, fingerprint, sort_order, created_at, created_by) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		&sqlitex.ExecOptions{
			Args: []any{entry.Key, entry.Name, parent, string(entry.Kind), fp, entry.SortOrder, createdAt, entry.CreatedBy},
		})
	if err != nil {
		if isConstraintViolation(err) {
			return model.TreeEntry{}, ErrDuplicateKey.WrapMessage(err, "key %q", entry.Key)
		}
		return model.TreeEntry{}, fmt.Errorf("catalog: inserting entry %q: %w", entry.Name, err)
	}
	entry.CreatedAt = timeFromNanos(createdAt)
	return entry, nil
}

// CreateEntry inserts a folder or root entry after validating its
// parent inside the same transaction. File entries are created through
// CommitIngest, which also writes the content record.
func (c *Catalog) CreateEntry(ctx context.Context, entry model.TreeEntry) (model.TreeEntry, error) {
	conn, err := c.pool.Take(ctx)
	if err != nil {
		return model.TreeEntry{}, fmt.Errorf("catalog: create entry: %w", err)
	}
	defer c.pool.Put(conn)

	endTx, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return model.TreeEntry{}, fmt.Errorf("catalog: create entry: begin: %w", err)
	}
	defer endTx(&err)

	if entry.ParentKey != "" {
		if err = requireFolder(conn, entry.ParentKey); err != nil {
			return model.TreeEntry{}, err
		}
	}
	var created model.TreeEntry
	created, err = insertEntry(conn, entry)
	return created, err
}

// ListChildren returns the direct children of a folder, ordered by the
// ordering hint then by name
func (c *Catalog) ListChildren(ctx context.Context, parentKey string) ([]model.TreeEntry, error) {
	conn, err := c.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list children: %w", err)
	}
	defer c.pool.Put(conn)

	if err := requireFolder(conn, parentKey); err != nil {
		if errors.Is(err, ErrParentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var res []model.TreeEntry
	err = sqlitex.Execute(conn,
		"SELECT "+entryColumns+" FROM tree_entries WHERE parent_key = ? ORDER BY sort_order, name",
		&sqlitex.ExecOptions{
			Args: []any{parentKey},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				res = append(res, scanEntry(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("catalog: listing children of %q: %w", parentKey, err)
	}
	return res, nil
}

// ListFiles returns every file entry in the catalog
func (c *Catalog) ListFiles(ctx context.Context) ([]model.TreeEntry, error) {
	conn, err := c.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list files: %w", err)
	}
	defer c.pool.Put(conn)

	var res []model.TreeEntry
	err = sqlitex.Execute(conn,
		"SELECT "+entryColumns+" FROM tree_entries WHERE kind = ? ORDER BY name",
		&sqlitex.ExecOptions{
			Args: []any{string(model.KindFile)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				res = append(res, scanEntry(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("catalog: listing files: %w", err)
	}
	return res, nil
}

// FindEntriesByName returns entries whose name contains the pattern,
// case-insensitively. The result set is unordered.
func (c *Catalog) FindEntriesByName(ctx context.Context, pattern string) ([]model.TreeEntry, error) {
	conn, err := c.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: find entries: %w", err)
	}
	defer c.pool.Put(conn)

	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(pattern)
	var res []model.TreeEntry
	err = sqlitex.Execute(conn,
		"SELECT "+entryColumns+` FROM tree_entries WHERE name LIKE ? ESCAPE '\'`,
		&sqlitex.ExecOptions{
			Args: []any{"%" + escaped + "%"},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				res = append(res, scanEntry(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("catalog: finding entries by name %q: %w", pattern, err)
	}
	return res, nil
}

// Descendants returns every entry reachable below key, excluding the
// entry itself. The order is parents before children.
func (c *Catalog) Descendants(ctx context.Context, key string) ([]model.TreeEntry, error) {
	conn, err := c.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: descendants: %w", err)
	}
	defer c.pool.Put(conn)

	if _, err := getEntry(conn, key); err != nil {
		return nil, err
	}
	return descendants(conn, key)
}

func descendants(conn *sqlite.Conn, key string) ([]model.TreeEntry, error) {
	var res []model.TreeEntry
	err := sqlitex.Execute(conn, `
		WITH RECURSIVE subtree(key, depth) AS (
			SELECT key, 1 FROM tree_entries WHERE parent_key = ?
			UNION ALL
			SELECT t.key, s.depth + 1 FROM tree_entries t JOIN subtree s ON t.parent_key = s.key
		)
		SELECT `+prefixedEntryColumns("e")+`
		FROM tree_entries e JOIN subtree s ON e.key = s.key
		ORDER BY s.depth`,
		&sqlitex.ExecOptions{
			Args: []any{key},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				res = append(res, scanEntry(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("catalog: resolving subtree of %q: %w", key, err)
	}
	return res, nil
}

func prefixedEntryColumns(alias string) string {
	cols := strings.Split(entryColumns, ", ")
	for i, col := range cols {
		cols[i] = alias + "." + col
	}
	return strings.Join(cols, ", ")
}
