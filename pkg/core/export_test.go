package core

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

// unpackArchive reads a gzip compressed tar stream into a member map
// and the trailing manifest
func unpackArchive(t *testing.T, archive []byte) (map[string][]byte, ExportManifest) {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	require.NoError(t, err)
	defer gz.Close()

	members := make(map[string][]byte)
	var manifest ExportManifest
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		if hdr.Name == exportManifestName {
			require.NoError(t, yaml.Unmarshal(data, &manifest))
			continue
		}
		members[hdr.Name] = data
	}
	return members, manifest
}

func TestBulkExport(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	root := rig.mustCreateRoot(t, "exports")

	one := []byte("first payload")
	two := bytes.Repeat([]byte("second payload "), 256)
	a, err := rig.engine.Ingest(ctx, bytes.NewReader(one), "one.txt", "text/plain", root.Key)
	require.NoError(t, err)
	b, err := rig.engine.Ingest(ctx, bytes.NewReader(two), "two.bin", "", root.Key)
	require.NoError(t, err)

	var buf bytes.Buffer
	manifest, err := rig.engine.BulkExport(ctx, []string{a.Key, b.Key}, &buf)
	require.NoError(t, err)
	require.Len(t, manifest.Entries, 2)
	assert.Equal(t, "star-worker", manifest.CreatedBy)
	for _, entry := range manifest.Entries {
		assert.True(t, entry.Ok())
	}

	members, unpacked := unpackArchive(t, buf.Bytes())
	assert.Equal(t, one, members["one.txt"])
	assert.Equal(t, two, members["two.bin"])
	require.Len(t, unpacked.Entries, 2)
	assert.Equal(t, a.Fingerprint, unpacked.Entries[0].Fingerprint)
	assert.Equal(t, uint64(len(two)), unpacked.Entries[1].Size)
}

func TestBulkExportPartialFailure(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	root := rig.mustCreateRoot(t, "partial")

	payload := []byte("survives the broken sibling")
	good, err := rig.engine.Ingest(ctx, bytes.NewReader(payload), "good.txt", "", root.Key)
	require.NoError(t, err)

	var buf bytes.Buffer
	manifest, err := rig.engine.BulkExport(ctx, []string{good.Key, "no-such-key"}, &buf)
	require.NoError(t, err)
	require.Len(t, manifest.Entries, 2)
	assert.True(t, manifest.Entries[0].Ok())
	assert.False(t, manifest.Entries[1].Ok())
	assert.Equal(t, "no-such-key", manifest.Entries[1].Key)
	assert.NotEmpty(t, manifest.Entries[1].Error)

	members, unpacked := unpackArchive(t, buf.Bytes())
	assert.Equal(t, payload, members["good.txt"])
	assert.Len(t, members, 1)
	assert.False(t, unpacked.Entries[1].Ok())
}

func TestBulkExportDuplicateNames(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	articleA := rig.mustCreateRoot(t, "a")
	articleB := rig.mustCreateRoot(t, "b")

	one := []byte("one")
	two := []byte("two")
	a, err := rig.engine.Ingest(ctx, bytes.NewReader(one), "readme.md", "", articleA.Key)
	require.NoError(t, err)
	b, err := rig.engine.Ingest(ctx, bytes.NewReader(two), "readme.md", "", articleB.Key)
	require.NoError(t, err)

	var buf bytes.Buffer
	manifest, err := rig.engine.BulkExport(ctx, []string{a.Key, b.Key}, &buf)
	require.NoError(t, err)

	members, _ := unpackArchive(t, buf.Bytes())
	require.Len(t, members, 2)
	assert.Equal(t, one, members["readme.md"])
	assert.Equal(t, two, members[b.Key+"-readme.md"])
	assert.Equal(t, "readme.md", manifest.Entries[0].ArchivePath)
	assert.Equal(t, b.Key+"-readme.md", manifest.Entries[1].ArchivePath)
}

func TestExportAll(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	root := rig.mustCreateRoot(t, "everything")

	_, err := rig.engine.Ingest(ctx, bytes.NewReader([]byte("1")), "one.txt", "", root.Key)
	require.NoError(t, err)
	_, err = rig.engine.Ingest(ctx, bytes.NewReader([]byte("2")), "two.txt", "", root.Key)
	require.NoError(t, err)

	var buf bytes.Buffer
	manifest, err := rig.engine.ExportAll(ctx, &buf)
	require.NoError(t, err)
	assert.Len(t, manifest.Entries, 2)

	members, _ := unpackArchive(t, buf.Bytes())
	assert.Len(t, members, 2)
}

func TestBulkExportEmptySet(t *testing.T) {
	rig := newTestRig(t)

	var buf bytes.Buffer
	manifest, err := rig.engine.BulkExport(context.Background(), nil, &buf)
	require.NoError(t, err)
	assert.Empty(t, manifest.Entries)

	members, _ := unpackArchive(t, buf.Bytes())
	assert.Empty(t, members)
}
