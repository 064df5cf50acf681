package core

import (
	"context"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/starworks/depot/pkg/catalog"
	"github.com/starworks/depot/pkg/core/status"
	"github.com/starworks/depot/pkg/errors"
	"github.com/starworks/depot/pkg/fingerprint"
	"github.com/starworks/depot/pkg/model"
	"github.com/starworks/depot/pkg/storage"

	"github.com/google/uuid"
)

// Ingest stores the stream under filename inside the parent folder.
//
// The stream is hashed first, then uploaded to the blob store under its
// fingerprint only when that content has never been seen, and finally
// committed to the catalog: content record (upserted) and tree entry
// (always fresh) within one transaction. Two concurrent uploads of
// identical content converge to a single content record; the loser of
// the insert race proceeds as if the record pre-existed.
//
// A failure before the catalog commit leaves the catalog untouched. The
// blob write happens before the commit, so a crash in between leaves an
// orphaned blob: harmless under content addressing, a future identical
// upload reuses it.
func (e *Engine) Ingest(ctx context.Context, rdr io.Reader, filename, mimeType, parentKey string) (model.TreeEntry, error) {
	if filename == "" {
		return model.TreeEntry{}, status.ErrInvalidName.WrapMessage(nil, "empty filename")
	}

	// fail fast on a bad destination before consuming the stream; the
	// commit re-validates the parent inside its transaction
	if _, err := e.folderEntry(ctx, parentKey); err != nil {
		return model.TreeEntry{}, err
	}

	start := time.Now()
	upload, err := e.stageStream(ctx, rdr)
	if err != nil {
		return model.TreeEntry{}, err
	}
	defer upload.cleanup()

	fp := upload.key.String()
	blobKey := e.pather(fp)
	known := true
	if _, err := e.catalog.GetContentRecord(ctx, fp); err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			return model.TreeEntry{}, err
		}
		known = false
	}

	if !known {
		if err := e.uploadBlob(ctx, blobKey, upload.reader); err != nil {
			return model.TreeEntry{}, err
		}
	} else {
		// catalog row without a blob is an integrity fault; re-uploading
		// here heals it instead of propagating it to future readers
		has, err := e.blobs.Has(ctx, blobKey)
		if err != nil {
			return model.TreeEntry{}, status.ErrStorageUnavailable.WrapMessage(err, "checking blob %s", blobKey)
		}
		if !has {
			e.l.Warn("catalogued content had no blob, re-uploading",
				zap.String("fingerprint", fp))
			if err := e.uploadBlob(ctx, blobKey, upload.reader); err != nil {
				return model.TreeEntry{}, err
			}
		}
	}

	res, err := e.catalog.CommitIngest(ctx,
		model.ContentRecord{
			Fingerprint: fp,
			Size:        upload.size,
			MimeType:    mimeType,
			CreatedBy:   e.contributor,
		},
		model.TreeEntry{
			Key:         uuid.NewString(),
			Name:        filename,
			ParentKey:   parentKey,
			Kind:        model.KindFile,
			Fingerprint: fp,
			CreatedBy:   e.contributor,
		})
	if err != nil {
		if errors.Is(err, catalog.ErrParentNotFound) {
			return model.TreeEntry{}, status.ErrParentNotFound.Wrap(err)
		}
		return model.TreeEntry{}, err
	}

	e.l.Info("ingested file",
		zap.String("name", filename),
		zap.String("key", res.Entry.Key),
		zap.String("fingerprint", fp),
		zap.Uint64("size", upload.size),
		zap.Bool("deduplicated", !res.RecordCreated),
		zap.Duration("duration", time.Since(start)))
	return res.Entry, nil
}

func (e *Engine) uploadBlob(ctx context.Context, blobKey string, rdr io.Reader) error {
	// content-addressed keys make the double write of a racing
	// identical upload byte-identical and therefore harmless
	if err := e.blobs.Put(ctx, blobKey, rdr, storage.OverWrite); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return status.ErrStorageUnavailable.WrapMessage(err, "uploading blob %s", blobKey)
	}
	return nil
}

// stagedUpload holds the hashed stream, rewound and ready for the
// upload pass
type stagedUpload struct {
	key     fingerprint.Key
	size    uint64
	reader  io.Reader
	cleanup func()
}

// stageStream hashes the stream and arranges for a second pass over
// the same bytes. Seekable streams are rewound in place; anything else
// is spilled to a temporary file which cleanup always removes, also
// when the operation is cancelled midway.
func (e *Engine) stageStream(ctx context.Context, rdr io.Reader) (*stagedUpload, error) {
	if seeker, ok := rdr.(io.ReadSeeker); ok {
		key, size, err := e.hasher.Process(ctx, seeker)
		if err != nil {
			return nil, wrapStreamErr(ctx, err)
		}
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return nil, status.ErrIO.WrapMessage(err, "rewinding stream")
		}
		return &stagedUpload{key: key, size: size, reader: seeker, cleanup: func() {}}, nil
	}

	spill, err := os.CreateTemp("", "depot-ingest-")
	if err != nil {
		return nil, status.ErrIO.WrapMessage(err, "creating spill file")
	}
	cleanup := func() {
		_ = spill.Close()
		_ = os.Remove(spill.Name())
	}

	key, size, err := e.hasher.Process(ctx, io.TeeReader(rdr, spill))
	if err != nil {
		cleanup()
		return nil, wrapStreamErr(ctx, err)
	}
	if _, err := spill.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, status.ErrIO.WrapMessage(err, "rewinding spill file")
	}
	return &stagedUpload{key: key, size: size, reader: spill, cleanup: cleanup}, nil
}

func wrapStreamErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return status.ErrIO.WrapMessage(err, "hashing stream")
}
