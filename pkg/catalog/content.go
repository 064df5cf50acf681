package catalog

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/starworks/depot/pkg/model"
)

const contentColumns = "fingerprint, size, mime_type, created_at, created_by"

func scanContentRecord(stmt *sqlite.Stmt) model.ContentRecord {
	return model.ContentRecord{
		Fingerprint: stmt.ColumnText(0),
		Size:        uint64(stmt.ColumnInt64(1)),
		MimeType:    stmt.ColumnText(2),
		CreatedAt:   timeFromNanos(stmt.ColumnInt64(3)),
		CreatedBy:   stmt.ColumnText(4),
	}
}

// GetContentRecord fetches the record for a fingerprint, or ErrNotFound
func (c *Catalog) GetContentRecord(ctx context.Context, fp string) (model.ContentRecord, error) {
	conn, err := c.pool.Take(ctx)
	if err != nil {
		return model.ContentRecord{}, fmt.Errorf("catalog: get content record: %w", err)
	}
	defer c.pool.Put(conn)

	return getContentRecord(conn, fp)
}

func getContentRecord(conn *sqlite.Conn, fp string) (model.ContentRecord, error) {
	var rec model.ContentRecord
	found := false
	err := sqlitex.Execute(conn,
		"SELECT "+contentColumns+" FROM content_records WHERE fingerprint = ?",
		&sqlitex.ExecOptions{
			Args: []any{fp},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				rec = scanContentRecord(stmt)
				found = true
				return nil
			},
		})
	if err != nil {
		return model.ContentRecord{}, fmt.Errorf("catalog: querying content record %q: %w", fp, err)
	}
	if !found {
		return model.ContentRecord{}, ErrNotFound
	}
	return rec, nil
}

// insertContentRecord writes a new record. Returns false without error
// when a record with the same fingerprint already exists: content
// identity makes the surviving row authoritative for both writers.
func insertContentRecord(conn *sqlite.Conn, rec model.ContentRecord) (bool, error) {
	err := sqlitex.Execute(conn,
		"INSERT INTO content_records (fingerprint, size, mime_type, created_at, created_by) VALUES (?, ?, ?, ?, ?)",
		&sqlitex.ExecOptions{
			Args: []any{rec.Fingerprint, int64(rec.Size), rec.MimeType, nowNanos(), rec.CreatedBy},
		})
	if err != nil {
		if isConstraintViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// referenceCount counts the tree entries referencing a fingerprint
func referenceCount(conn *sqlite.Conn, fp string) (int64, error) {
	var n int64
	err := sqlitex.Execute(conn,
		"SELECT COUNT(*) FROM tree_entries WHERE fingerprint = ?",
		&sqlitex.ExecOptions{
			Args: []any{fp},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				n = stmt.ColumnInt64(0)
				return nil
			},
		})
	return n, err
}

// deleteContentRecord removes the row for a fingerprint
func deleteContentRecord(conn *sqlite.Conn, fp string) error {
	return sqlitex.Execute(conn,
		"DELETE FROM content_records WHERE fingerprint = ?",
		&sqlitex.ExecOptions{Args: []any{fp}})
}
