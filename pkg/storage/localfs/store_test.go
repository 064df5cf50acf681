package localfs

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/starworks/depot/pkg/errors"
	"github.com/starworks/depot/pkg/storage"
	"github.com/starworks/depot/pkg/storage/status"
)

func testStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := New(afero.NewBasePathFs(afero.NewOsFs(), t.TempDir()))
	require.NoError(t, err)
	return store
}

func TestLocalFSPutGet(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	payload := []byte("some object bytes")
	require.NoError(t, store.Put(ctx, "blobs/abc", bytes.NewReader(payload), storage.OverWrite))

	has, err := store.Has(ctx, "blobs/abc")
	require.NoError(t, err)
	require.True(t, has)

	rdr, err := store.Get(ctx, "blobs/abc")
	require.NoError(t, err)
	got, err := io.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	require.Equal(t, payload, got)
}

func TestLocalFSGetMissing(t *testing.T) {
	store := testStore(t)

	_, err := store.Get(context.Background(), "blobs/nope")
	require.True(t, errors.Is(err, status.ErrNotFound))
}

func TestLocalFSPutNewOnly(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	require.NoError(t, store.Put(ctx, "blobs/abc", strings.NewReader("one"), storage.NewOnly))
	err := store.Put(ctx, "blobs/abc", strings.NewReader("two"), storage.NewOnly)
	require.True(t, errors.Is(err, status.ErrExists))

	// overwrite mode replaces the object
	require.NoError(t, store.Put(ctx, "blobs/abc", strings.NewReader("two"), storage.OverWrite))
	rdr, err := store.Get(ctx, "blobs/abc")
	require.NoError(t, err)
	got, err := io.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	require.Equal(t, "two", string(got))
}

func TestLocalFSDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	require.NoError(t, store.Put(ctx, "blobs/abc", strings.NewReader("x"), storage.OverWrite))
	require.NoError(t, store.Delete(ctx, "blobs/abc"))
	require.NoError(t, store.Delete(ctx, "blobs/abc"))

	has, err := store.Has(ctx, "blobs/abc")
	require.NoError(t, err)
	require.False(t, has)
}

func TestLocalFSKeysSkipStaging(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	require.NoError(t, store.Put(ctx, "blobs/a", strings.NewReader("a"), storage.OverWrite))
	require.NoError(t, store.Put(ctx, "blobs/b", strings.NewReader("b"), storage.OverWrite))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"blobs/a", "blobs/b"}, keys)
}

func TestLocalFSInvalidKey(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	err := store.Put(ctx, ".put-stage/sneaky", strings.NewReader("x"), storage.OverWrite)
	require.True(t, errors.Is(err, status.ErrInvalidKey))

	_, err = store.Get(ctx, "")
	require.True(t, errors.Is(err, status.ErrInvalidKey))
}
