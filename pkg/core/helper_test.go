package core

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/starworks/depot/pkg/catalog"
	"github.com/starworks/depot/pkg/model"
	"github.com/starworks/depot/pkg/storage"
	"github.com/starworks/depot/pkg/storage/localfs"
)

type testRig struct {
	engine  *Engine
	catalog *catalog.Catalog
	blobs   storage.Store
}

func newTestRig(t *testing.T, opts ...Option) *testRig {
	t.Helper()
	cat, err := catalog.New(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, cat.Close())
	})

	blobs, err := localfs.New(afero.NewBasePathFs(afero.NewOsFs(), t.TempDir()))
	require.NoError(t, err)

	// small hashing buffer: tests push kilobytes, not gigabytes
	opts = append([]Option{Contributor("star-worker"), ChunkSize(64 * 1024)}, opts...)
	return &testRig{
		engine:  New(cat, blobs, opts...),
		catalog: cat,
		blobs:   blobs,
	}
}

func (r *testRig) mustCreateRoot(t *testing.T, title string) model.TreeEntry {
	t.Helper()
	root, err := r.engine.CreateRoot(context.Background(), title)
	require.NoError(t, err)
	return root
}

func (r *testRig) blobCount(t *testing.T) int {
	t.Helper()
	keys, err := r.blobs.Keys(context.Background())
	require.NoError(t, err)
	return len(keys)
}

// noSeek hides any Seek method of the underlying reader, forcing the
// ingest pipeline down the spill-file path
type noSeek struct {
	r interface {
		Read([]byte) (int, error)
	}
}

func (n noSeek) Read(p []byte) (int, error) { return n.r.Read(p) }
