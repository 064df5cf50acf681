// Package catalog implements the relational metadata store.
//
// Two tables hold the canonical state of the system: content_records,
// one row per unique content fingerprint, and tree_entries, one row per
// logical file or folder. The primary key constraints on fingerprint
// and entry key are the sole serialization points for concurrent
// ingestion: racing writers of identical content are converged by
// catching the constraint violation, never by locking in process.
//
// The catalog hands out immutable value snapshots (pkg/model) and keeps
// no row cache: every call re-reads from the database so concurrent
// mutations are always observed.
package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/starworks/depot/pkg/dlogger"
	"github.com/starworks/depot/pkg/errors"
)

var (
	// ErrNotFound indicates that no row matches the requested key or fingerprint
	ErrNotFound = errors.New("catalog: not found")

	// ErrParentNotFound indicates that the referenced parent folder does not exist
	// or is not a folder
	ErrParentNotFound = errors.New("catalog: parent folder not found")

	// ErrDuplicateKey indicates a collision on an entry key
	ErrDuplicateKey = errors.New("catalog: duplicate entry key")

	// ErrFolderNotEmpty indicates a non-cascading delete on a folder that
	// still has children
	ErrFolderNotEmpty = errors.New("catalog: folder not empty")
)

const schema = `
CREATE TABLE IF NOT EXISTS content_records (
	fingerprint TEXT PRIMARY KEY,
	size        INTEGER NOT NULL,
	mime_type   TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL,
	created_by  TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS tree_entries (
	key         TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	parent_key  TEXT,
	kind        TEXT NOT NULL,
	fingerprint TEXT,
	sort_order  INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL,
	created_by  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_tree_entries_parent ON tree_entries(parent_key);
CREATE INDEX IF NOT EXISTS idx_tree_entries_fingerprint ON tree_entries(fingerprint);
CREATE INDEX IF NOT EXISTS idx_tree_entries_name ON tree_entries(name COLLATE NOCASE);
`

// Option to configure the catalog
type Option func(*Catalog)

// Logger sets a logger for the catalog
func Logger(l *zap.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.l = l
		}
	}
}

// PoolSize sets the number of connections in the pool
func PoolSize(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// Catalog is the transactional access layer over the metadata tables.
// It is safe for concurrent use.
type Catalog struct {
	pool     *sqlitex.Pool
	poolSize int
	l        *zap.Logger
}

// New opens (and creates if needed) the catalog database at path
func New(path string, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		poolSize: 4,
		l:        dlogger.MustGetLogger(dlogger.LogLevelNone),
	}
	for _, apply := range opts {
		apply(c)
	}

	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize: c.poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			return prepareConn(conn)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: opening %s: %w", path, err)
	}
	c.pool = pool

	if err := c.ensureSchema(context.Background()); err != nil {
		_ = pool.Close()
		return nil, err
	}

	c.l.Debug("catalog opened", zap.String("path", path), zap.Int("pool_size", c.poolSize))
	return c, nil
}

func prepareConn(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("catalog: %s: %w", pragma, err)
		}
	}
	return nil
}

func (c *Catalog) ensureSchema(ctx context.Context) error {
	conn, err := c.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("catalog: ensure schema: %w", err)
	}
	defer c.pool.Put(conn)

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("catalog: creating schema: %w", err)
	}
	return nil
}

// Close releases the connection pool. It blocks until all borrowed
// connections are returned.
func (c *Catalog) Close() error {
	return c.pool.Close()
}

// Ping verifies that the database answers queries
func (c *Catalog) Ping(ctx context.Context) error {
	conn, err := c.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("catalog: ping: %w", err)
	}
	defer c.pool.Put(conn)

	return sqlitex.ExecuteTransient(conn, "SELECT 1", &sqlitex.ExecOptions{
		ResultFunc: func(*sqlite.Stmt) error { return nil },
	})
}

// isConstraintViolation reports whether err is a unique or primary key
// constraint failure, the signal that a concurrent writer won the race.
func isConstraintViolation(err error) bool {
	code := sqlite.ErrCode(err)
	return code == sqlite.ResultConstraintUnique || code == sqlite.ResultConstraintPrimaryKey
}

func nowNanos() int64 {
	return time.Now().UTC().UnixNano()
}

func timeFromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
