package core

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starworks/depot/pkg/core/status"
	"github.com/starworks/depot/pkg/errors"
	"github.com/starworks/depot/pkg/model"
)

func TestResolveFoldersAndFiles(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	root := rig.mustCreateRoot(t, "article")

	entry, rec, err := rig.engine.Resolve(ctx, root.Key)
	require.NoError(t, err)
	assert.Equal(t, model.KindFolder, entry.Kind)
	assert.Zero(t, rec)

	file, err := rig.engine.Ingest(ctx, bytes.NewReader([]byte("hello")), "hi.txt", "text/plain", root.Key)
	require.NoError(t, err)
	entry, rec, err = rig.engine.Resolve(ctx, file.Key)
	require.NoError(t, err)
	assert.Equal(t, model.KindFile, entry.Kind)
	assert.Equal(t, uint64(5), rec.Size)
	assert.Equal(t, entry.Fingerprint, rec.Fingerprint)

	_, _, err = rig.engine.Resolve(ctx, "no-such-key")
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestOpenStreamDistinguishesMissingBlob(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	root := rig.mustCreateRoot(t, "integrity")

	file, err := rig.engine.Ingest(ctx, bytes.NewReader([]byte("fragile")), "f.txt", "", root.Key)
	require.NoError(t, err)

	// an unknown key is a plain not-found
	_, _, _, err = rig.engine.OpenStream(ctx, "no-such-key")
	assert.True(t, errors.Is(err, status.ErrNotFound))
	assert.False(t, errors.Is(err, status.ErrBlobMissing))

	// a folder has no stream
	_, _, _, err = rig.engine.OpenStream(ctx, root.Key)
	assert.True(t, errors.Is(err, status.ErrNotFound))

	// a catalogued entry whose blob vanished is an integrity failure,
	// never folded into not-found
	require.NoError(t, rig.blobs.Delete(ctx, DefaultBlobPrefix+file.Fingerprint))
	_, _, _, err = rig.engine.OpenStream(ctx, file.Key)
	assert.True(t, errors.Is(err, status.ErrBlobMissing))
	assert.False(t, errors.Is(err, status.ErrNotFound))
}

func TestOpenStreamStorageDown(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	root := rig.mustCreateRoot(t, "outage")

	file, err := rig.engine.Ingest(ctx, bytes.NewReader([]byte("unreachable")), "u.txt", "", root.Key)
	require.NoError(t, err)

	broken := New(rig.catalog, downStore{}, Contributor("star-worker"))
	_, _, _, err = broken.OpenStream(ctx, file.Key)
	assert.True(t, errors.Is(err, status.ErrStorageUnavailable))
}

func TestFindByNameIsCaseInsensitive(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	root := rig.mustCreateRoot(t, "library")

	_, err := rig.engine.Ingest(ctx, bytes.NewReader([]byte("a")), "Quarterly Report.pdf", "", root.Key)
	require.NoError(t, err)
	_, err = rig.engine.Ingest(ctx, bytes.NewReader([]byte("b")), "report-final.txt", "", root.Key)
	require.NoError(t, err)
	_, err = rig.engine.Ingest(ctx, bytes.NewReader([]byte("c")), "unrelated.txt", "", root.Key)
	require.NoError(t, err)

	hits, err := rig.engine.FindByName(ctx, "report")
	require.NoError(t, err)
	require.Len(t, hits, 2)

	hits, err = rig.engine.FindByName(ctx, "REPORT")
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = rig.engine.FindByName(ctx, "no such name")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestListChildren(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	root := rig.mustCreateRoot(t, "article")
	folder, err := rig.engine.CreateFolder(ctx, "sub", root.Key)
	require.NoError(t, err)
	_, err = rig.engine.Ingest(ctx, bytes.NewReader([]byte("z")), "zeta.txt", "", root.Key)
	require.NoError(t, err)
	_, err = rig.engine.Ingest(ctx, bytes.NewReader([]byte("a")), "alpha.txt", "", root.Key)
	require.NoError(t, err)

	children, err := rig.engine.ListChildren(ctx, root.Key)
	require.NoError(t, err)
	require.Len(t, children, 3)
	names := []string{children[0].Name, children[1].Name, children[2].Name}
	assert.Equal(t, []string{"alpha.txt", "sub", "zeta.txt"}, names)

	children, err = rig.engine.ListChildren(ctx, folder.Key)
	require.NoError(t, err)
	assert.Empty(t, children)

	_, err = rig.engine.ListChildren(ctx, "no-such-key")
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestPing(t *testing.T) {
	rig := newTestRig(t)
	require.NoError(t, rig.engine.Ping(context.Background()))
}
